package model

import (
	"github.com/illmade-knight/go-remotedata/pkg/hal"
	"github.com/illmade-knight/go-remotedata/pkg/remotedata"
)

// Community is a top-level grouping of sub-communities and collections.
type Community struct {
	DSpaceObject

	// Logo, Collections and Subcommunities stay unresolved until asked for.
	Logo           Relation[*Bitstream]                              `json:"logo"`
	Collections    Relation[remotedata.PaginatedList[*Collection]] `json:"collections"`
	Subcommunities Relation[remotedata.PaginatedList[*Community]]  `json:"subcommunities"`
}

// IntroductoryText corresponds to dc.description.
func (c *Community) IntroductoryText() string { return c.FirstMetadataValue("dc.description") }

// ShortDescription corresponds to dc.description.abstract.
func (c *Community) ShortDescription() string {
	return c.FirstMetadataValue("dc.description.abstract")
}

// CopyrightText corresponds to dc.rights.
func (c *Community) CopyrightText() string { return c.FirstMetadataValue("dc.rights") }

// SidebarText corresponds to dc.description.tableofcontents.
func (c *Community) SidebarText() string {
	return c.FirstMetadataValue("dc.description.tableofcontents")
}

func communityDSO(c *Community) *DSpaceObject { return &c.DSpaceObject }

// CommunitySchema decodes community resources.
var CommunitySchema = hal.Schema[Community]{
	Types:  []string{TypeCommunity},
	Fields: dsoFields(communityDSO),
	Relations: []hal.RelationField[Community]{
		hal.Relation("logo", func(c *Community, l hal.Link) { c.Logo = Unresolved[*Bitstream](l.Href) }),
		hal.Relation("collections", func(c *Community, l hal.Link) {
			c.Collections = Unresolved[remotedata.PaginatedList[*Collection]](l.Href)
		}),
		hal.Relation("subcommunities", func(c *Community, l hal.Link) {
			c.Subcommunities = Unresolved[remotedata.PaginatedList[*Community]](l.Href)
		}),
	},
	Finish: dsoFinish(communityDSO),
}
