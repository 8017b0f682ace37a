package ingest

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Framework</w:t></w:r></w:p>
    <w:p><w:pPr><w:pStyle w:val="Heading2"/></w:pPr><w:r><w:t>Util </w:t></w:r><w:r><w:t>first</w:t></w:r></w:p>
    <w:p><w:r><w:t>Body paragraph under the tag.</w:t></w:r></w:p>
    <w:p><w:pPr><w:pStyle w:val="Cite"/></w:pPr><w:r><w:t>Smith 24</w:t></w:r></w:p>
    <w:p><w:pPr><w:pStyle w:val="BlockQuote"/></w:pPr><w:r><w:t>Quoted evidence text.</w:t></w:r></w:p>
    <w:p><w:pPr><w:pStyle w:val="Heading4"/></w:pPr><w:r><w:t>Answer</w:t></w:r></w:p>
    <w:p><w:pPr><w:pStyle w:val="Normal"/></w:pPr><w:r><w:t></w:t></w:r></w:p>
  </w:body>
</w:document>`

const coreXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
  xmlns:dc="http://purl.org/dc/elements/1.1/">
  <dc:creator>Jordan Park</dc:creator>
</cp:coreProperties>`

func writeDocx(t *testing.T, parts map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, content := range parts {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestParseDocx(t *testing.T) {
	path := writeDocx(t, map[string]string{
		"word/document.xml": documentXML,
		"docProps/core.xml": coreXML,
	})

	doc, err := ParseDocx(path)
	require.NoError(t, err)

	assert.Equal(t, "Jordan Park", doc.Author)

	require.Len(t, doc.Headings, 3)
	assert.Equal(t, int64(1), doc.Headings[0].Order)
	assert.Equal(t, 1, doc.Headings[0].Level)
	assert.Equal(t, "Framework", doc.Headings[0].Text)

	// Runs inside one paragraph concatenate.
	assert.Equal(t, "Util first", doc.Headings[1].Text)
	assert.Equal(t, 2, doc.Headings[1].Level)

	assert.Equal(t, "Answer", doc.Headings[2].Text)
	assert.Equal(t, 4, doc.Headings[2].Level)

	// Copy text carries the body beneath the heading up to the next one.
	want := "Util first\nBody paragraph under the tag.\nSmith 24\nQuoted evidence text."
	assert.Equal(t, want, doc.Headings[1].CopyText)

	require.Len(t, doc.Citations, 2)
	assert.Equal(t, "Smith 24", doc.Citations[0].Text)
	assert.Equal(t, "Cite", doc.Citations[0].StyleLabel)
	assert.Equal(t, int64(4), doc.Citations[0].Order)
	assert.Equal(t, "Quoted evidence text.", doc.Citations[1].Text)
	assert.Equal(t, "BlockQuote", doc.Citations[1].StyleLabel)

	// Heading and citation orders interleave in document order.
	assert.Less(t, doc.Headings[1].Order, doc.Citations[0].Order)
	assert.Less(t, doc.Citations[1].Order, doc.Headings[2].Order)
}

func TestHeadingLevel(t *testing.T) {
	cases := []struct {
		style string
		level int
		ok    bool
	}{
		{"Heading1", 1, true},
		{"Heading9", 9, true},
		{"Heading10", 0, false},
		{"Heading", 0, false},
		{"Normal", 0, false},
		{"Cite", 0, false},
	}
	for _, tc := range cases {
		level, ok := headingLevel(tc.style)
		assert.Equal(t, tc.ok, ok, "style %q", tc.style)
		assert.Equal(t, tc.level, level, "style %q", tc.style)
	}
}

func TestCopyTextCapped(t *testing.T) {
	paras := []paragraph{{style: "Heading1", text: "Top"}}
	for range 100 {
		paras = append(paras, paragraph{text: strings.Repeat("x", 100)})
	}
	got := copyText(paras, 0)
	assert.LessOrEqual(t, len(got), copyTextLimit)
	assert.True(t, strings.HasPrefix(got, "Top\n"))
}

func TestParseDocxMissingDocument(t *testing.T) {
	path := writeDocx(t, map[string]string{"docProps/core.xml": coreXML})
	doc, err := ParseDocx(path)
	require.NoError(t, err)
	assert.Empty(t, doc.Headings)
	assert.Equal(t, "Jordan Park", doc.Author)
}
