package ingest

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"folio/internal/engine"
)

// copyTextLimit caps the body text carried along with each heading.
const copyTextLimit = 4000

// Document is the indexed content of one .docx file.
type Document struct {
	Author    string
	Headings  []engine.FileHeading
	Citations []engine.TaggedBlock
}

// paragraph is one w:p element: its style id and concatenated run text.
type paragraph struct {
	style string
	text  string
}

// ParseDocx opens a .docx archive and extracts its headings, citation blocks,
// and author. Heading and citation orders are paragraph positions, so the two
// kinds interleave in document order.
func ParseDocx(path string) (*Document, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open docx %s: %w", path, err)
	}
	defer zr.Close()

	doc := &Document{}
	for _, f := range zr.File {
		switch f.Name {
		case "word/document.xml":
			rc, err := f.Open()
			if err != nil {
				return nil, fmt.Errorf("open document.xml: %w", err)
			}
			paras, err := readParagraphs(rc)
			rc.Close()
			if err != nil {
				return nil, fmt.Errorf("parse document.xml: %w", err)
			}
			doc.Headings, doc.Citations = classify(paras)
		case "docProps/core.xml":
			rc, err := f.Open()
			if err != nil {
				continue
			}
			doc.Author = readCreator(rc)
			rc.Close()
		}
	}
	return doc, nil
}

// readParagraphs streams document.xml and flattens every w:p into its style
// id plus the concatenation of its w:t runs.
func readParagraphs(r io.Reader) ([]paragraph, error) {
	dec := xml.NewDecoder(r)

	var (
		paras  []paragraph
		cur    paragraph
		open   bool
		inText bool
		sb     strings.Builder
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				cur = paragraph{}
				sb.Reset()
				open = true
			case "pStyle":
				if open {
					for _, a := range t.Attr {
						if a.Name.Local == "val" {
							cur.style = a.Value
						}
					}
				}
			case "t":
				inText = open
			case "tab":
				if open {
					sb.WriteByte(' ')
				}
			case "br":
				if open {
					sb.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if open {
					cur.text = sb.String()
					paras = append(paras, cur)
					open = false
				}
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return paras, nil
}

// classify splits paragraphs into headings and citation blocks. A heading's
// copy text is the heading line plus the body paragraphs beneath it, so
// copying a heading carries its content along.
func classify(paras []paragraph) ([]engine.FileHeading, []engine.TaggedBlock) {
	var (
		headings  []engine.FileHeading
		citations []engine.TaggedBlock
	)
	for i, p := range paras {
		text := strings.TrimSpace(p.text)
		if text == "" {
			continue
		}
		ord := int64(i + 1)
		if level, ok := headingLevel(p.style); ok {
			headings = append(headings, engine.FileHeading{
				Order:    ord,
				Level:    level,
				Text:     text,
				CopyText: copyText(paras, i),
			})
			continue
		}
		if isCitationStyle(p.style) {
			citations = append(citations, engine.TaggedBlock{
				Order:      ord,
				Text:       text,
				StyleLabel: p.style,
			})
		}
	}
	return headings, citations
}

// headingLevel maps style ids like "Heading1".."Heading9" to their level.
func headingLevel(style string) (int, bool) {
	rest, ok := strings.CutPrefix(style, "Heading")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 || n > 9 {
		return 0, false
	}
	return n, true
}

func isCitationStyle(style string) bool {
	s := strings.ToLower(style)
	return strings.Contains(s, "cite") || strings.Contains(s, "quote")
}

// copyText joins the heading at paras[i] with the body paragraphs beneath
// it, up to the next heading.
func copyText(paras []paragraph, i int) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(paras[i].text))
	for _, p := range paras[i+1:] {
		if _, ok := headingLevel(p.style); ok {
			break
		}
		text := strings.TrimSpace(p.text)
		if text == "" {
			continue
		}
		if sb.Len()+len(text)+1 > copyTextLimit {
			break
		}
		sb.WriteByte('\n')
		sb.WriteString(text)
	}
	return sb.String()
}

// readCreator pulls dc:creator out of docProps/core.xml.
func readCreator(r io.Reader) string {
	dec := xml.NewDecoder(r)
	inCreator := false
	var sb strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			inCreator = t.Name.Local == "creator"
		case xml.EndElement:
			if t.Name.Local == "creator" {
				return strings.TrimSpace(sb.String())
			}
		case xml.CharData:
			if inCreator {
				sb.Write(t)
			}
		}
	}
	return strings.TrimSpace(sb.String())
}
