package colorpipe

import (
	"encoding/xml"
	"fmt"
	"os"
)

// ASCNamespace is the XML namespace of ASC CDL v1.01 documents.
const ASCNamespace = "urn:ASC:CDL:v1.01"

type cdlDocument struct {
	XMLName     xml.Name
	Corrections []cdlCorrection `xml:"ColorCorrection"`
	Decisions   []cdlDecision   `xml:"ColorDecision"`
	RootID      string          `xml:"id,attr"`
}

type cdlDecision struct {
	Correction cdlCorrection `xml:"ColorCorrection"`
}

type cdlCorrection struct {
	XMLName xml.Name
	ID      string `xml:"id,attr"`
}

// ParseCCCID returns the id of the first ColorCorrection in a .cdl, .cc or
// .ccc file. Files without the ASC namespace are accepted. An empty id is
// returned when the document carries no ColorCorrection.
func ParseCCCID(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return parseCCCID(data)
}

func parseCCCID(data []byte) (string, error) {
	var doc cdlDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("parse cdl: %w", err)
	}
	if !ascSpace(doc.XMLName.Space) {
		return "", fmt.Errorf("parse cdl: unexpected namespace %q", doc.XMLName.Space)
	}
	// A bare .cc file is itself the ColorCorrection.
	if doc.XMLName.Local == "ColorCorrection" {
		return doc.RootID, nil
	}
	for _, cc := range doc.Corrections {
		if ascSpace(cc.XMLName.Space) {
			return cc.ID, nil
		}
	}
	for _, d := range doc.Decisions {
		if ascSpace(d.Correction.XMLName.Space) && d.Correction.XMLName.Local != "" {
			return d.Correction.ID, nil
		}
	}
	return "", nil
}

func ascSpace(space string) bool {
	return space == "" || space == ASCNamespace
}
