package model

import (
	"github.com/illmade-knight/go-remotedata/pkg/hal"
)

// CheckSum is the digest the repository recorded for a bitstream.
type CheckSum struct {
	Algorithm string `json:"checkSumAlgorithm"`
	Value     string `json:"value"`
}

// Bitstream is a file attached to an item, or a logo.
type Bitstream struct {
	DSpaceObject

	SizeBytes  int64    `json:"sizeBytes"`
	CheckSum   CheckSum `json:"checkSum"`
	SequenceID int      `json:"sequenceId"`
	BundleName string   `json:"bundleName,omitempty"`
	// Content is the download link; it is never fetched through the caches.
	Content string `json:"content,omitempty"`
}

// Description corresponds to dc.description.
func (b *Bitstream) Description() string { return b.FirstMetadataValue("dc.description") }

func bitstreamDSO(b *Bitstream) *DSpaceObject { return &b.DSpaceObject }

// BitstreamSchema decodes bitstream resources.
var BitstreamSchema = hal.Schema[Bitstream]{
	Types: []string{TypeBitstream},
	Fields: append(dsoFields(bitstreamDSO),
		hal.JSONField("sizeBytes", func(b *Bitstream) *int64 { return &b.SizeBytes }),
		hal.JSONField("checkSum", func(b *Bitstream) *CheckSum { return &b.CheckSum }),
		hal.IntField("sequenceId", func(b *Bitstream) *int { return &b.SequenceID }),
		hal.StringField("bundleName", func(b *Bitstream) *string { return &b.BundleName }),
	),
	Relations: []hal.RelationField[Bitstream]{
		hal.Relation("content", func(b *Bitstream, l hal.Link) { b.Content = l.Href }),
	},
	Finish: dsoFinish(bitstreamDSO),
}
