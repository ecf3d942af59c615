package ooxml

import (
	"bytes"

	"github.com/adnsv/srw/xml"
)

// WriteRelationshipsPart serializes rels (sorted by relationship id) as a
// standard OOXML .rels part through out, the same shape writer.go's
// writeRels emits. Exported so internal/streaming's phase-2 emitter can
// write xl/_rels/workbook.xml.rels and per-sheet .rels parts without
// duplicating the relationships XML shape.
func WriteRelationshipsPart(out Storage, path string, rels map[string]RelInfo, xmlCfg xml.WriterConfig) error {
	bb := bytes.Buffer{}
	x := xml.NewWriter(&bb, xmlCfg)
	x.XmlStandaloneDecl()
	x.OTag("Relationships")
	x.Attr("xmlns", packageRelNS)
	for _, rid := range sortedKeys(rels) {
		info := rels[rid]
		x.OTag("+Relationship").Attr("Id", rid).Attr("Type", info.Type).Attr("Target", info.Target).CTag()
	}
	x.CTag()
	return out.WriteBlob(path, bb.Bytes())
}

// WriteContentTypesPart serializes [Content_Types].xml from an
// extension-keyed default map and a part-path-keyed override map, the same
// shape writer.go's writeContentTypes emits.
func WriteContentTypesPart(out Storage, defaults, overrides map[string]string, xmlCfg xml.WriterConfig) error {
	bb := bytes.Buffer{}
	x := xml.NewWriter(&bb, xmlCfg)
	x.XmlStandaloneDecl()
	x.OTag("Types")
	x.Attr("xmlns", "http://schemas.openxmlformats.org/package/2006/content-types")
	for _, ext := range sortedKeys(defaults) {
		x.OTag("+Default").Attr("Extension", ext).Attr("ContentType", defaults[ext]).CTag()
	}
	for _, part := range sortedKeys(overrides) {
		x.OTag("+Override").Attr("PartName", part).Attr("ContentType", overrides[part]).CTag()
	}
	x.CTag()
	return out.WriteBlob("[Content_Types].xml", bb.Bytes())
}
