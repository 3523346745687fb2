package parse

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// DOCXExtractor flattens word/document.xml into plain text and reuses the
// text heuristics. Table rows are emitted as a single line with cells joined
// by tabs so that tabular item rows still match the row patterns.
type DOCXExtractor struct{}

func (DOCXExtractor) Extract(data []byte) (*ParsedInvoice, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: no word/document.xml in archive", ErrMalformed)
	}
	rc, err := doc.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	defer rc.Close()

	text, err := flattenDOCX(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return extractFromText(text), nil
}

func flattenDOCX(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var out strings.Builder
	var cell strings.Builder
	var rowCells []string
	cellDepth := 0
	inText := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tc":
				cellDepth++
			case "tab":
				writeDOCXText(&out, &cell, cellDepth, "\t")
			case "br":
				writeDOCXText(&out, &cell, cellDepth, "\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "tc":
				cellDepth--
				if cellDepth == 0 {
					rowCells = append(rowCells, strings.TrimSpace(cell.String()))
					cell.Reset()
				}
			case "tr":
				if len(rowCells) > 0 {
					out.WriteString(strings.Join(rowCells, "\t"))
					out.WriteByte('\n')
					rowCells = nil
				}
			case "p":
				if cellDepth > 0 {
					cell.WriteByte(' ')
				} else {
					out.WriteByte('\n')
				}
			}
		case xml.CharData:
			if inText {
				writeDOCXText(&out, &cell, cellDepth, string(t))
			}
		}
	}
	return out.String(), nil
}

func writeDOCXText(out, cell *strings.Builder, cellDepth int, s string) {
	if cellDepth > 0 {
		cell.WriteString(s)
	} else {
		out.WriteString(s)
	}
}
