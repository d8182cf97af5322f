package ingest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

var _ Extractor = DOCXExtractor{}

// maxZipEntrySize limits decompressed size of individual zip entries to
// guard against zip bombs (100 MB).
const maxZipEntrySize = 100 << 20

// DOCXExtractor streams OOXML tokens out of word/document.xml,
// emitting one paragraph per line without building a DOM tree.
type DOCXExtractor struct{}

func (DOCXExtractor) Extract(content []byte) (string, error) {
	r, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}

	var docXML []byte
	for _, f := range r.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open document.xml: %w", err)
		}
		docXML, err = io.ReadAll(io.LimitReader(rc, maxZipEntrySize))
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("read document.xml: %w", err)
		}
		break
	}
	if docXML == nil {
		return "", fmt.Errorf("docx has no word/document.xml")
	}

	dec := xml.NewDecoder(bytes.NewReader(docXML))
	var text strings.Builder
	var para strings.Builder
	inText := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				para.WriteByte('\t')
			case "br":
				para.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if p := strings.TrimSpace(para.String()); p != "" {
					if text.Len() > 0 {
						text.WriteString("\n\n")
					}
					text.WriteString(p)
				}
				para.Reset()
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}

	return text.String(), nil
}
