package model

import (
	"github.com/illmade-knight/go-remotedata/pkg/hal"
)

// Collection groups items inside a community.
type Collection struct {
	DSpaceObject

	Logo            Relation[*Bitstream] `json:"logo"`
	ParentCommunity Relation[*Community] `json:"parentCommunity"`
}

// License corresponds to dc.rights.license.
func (c *Collection) License() string { return c.FirstMetadataValue("dc.rights.license") }

// IntroductoryText corresponds to dc.description.
func (c *Collection) IntroductoryText() string { return c.FirstMetadataValue("dc.description") }

func collectionDSO(c *Collection) *DSpaceObject { return &c.DSpaceObject }

// CollectionSchema decodes collection resources.
var CollectionSchema = hal.Schema[Collection]{
	Types:  []string{TypeCollection},
	Fields: dsoFields(collectionDSO),
	Relations: []hal.RelationField[Collection]{
		hal.Relation("logo", func(c *Collection, l hal.Link) { c.Logo = Unresolved[*Bitstream](l.Href) }),
		hal.Relation("parentCommunity", func(c *Collection, l hal.Link) {
			c.ParentCommunity = Unresolved[*Community](l.Href)
		}),
	},
	Finish: dsoFinish(collectionDSO),
}
