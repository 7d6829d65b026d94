package model

import (
	"time"

	"github.com/illmade-knight/go-remotedata/pkg/hal"
)

// Item is a single archived work.
type Item struct {
	DSpaceObject

	InArchive    bool      `json:"inArchive"`
	Discoverable bool      `json:"discoverable"`
	Withdrawn    bool      `json:"withdrawn"`
	LastModified time.Time `json:"lastModified"`

	OwningCollection Relation[*Collection] `json:"owningCollection"`
	Thumbnail        Relation[*Bitstream]  `json:"thumbnail"`
}

func itemDSO(i *Item) *DSpaceObject { return &i.DSpaceObject }

// ItemSchema decodes item resources.
var ItemSchema = hal.Schema[Item]{
	Types: []string{TypeItem},
	Fields: append(dsoFields(itemDSO),
		hal.BoolField("inArchive", func(i *Item) *bool { return &i.InArchive }),
		hal.BoolField("discoverable", func(i *Item) *bool { return &i.Discoverable }),
		hal.BoolField("withdrawn", func(i *Item) *bool { return &i.Withdrawn }),
		hal.JSONField("lastModified", func(i *Item) *time.Time { return &i.LastModified }),
	),
	Relations: []hal.RelationField[Item]{
		hal.Relation("owningCollection", func(i *Item, l hal.Link) {
			i.OwningCollection = Unresolved[*Collection](l.Href)
		}),
		hal.Relation("thumbnail", func(i *Item, l hal.Link) { i.Thumbnail = Unresolved[*Bitstream](l.Href) }),
	},
	Finish: dsoFinish(itemDSO),
}
