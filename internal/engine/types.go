package engine

// FolderEntry is one folder in an index snapshot. The root folder has an
// empty path and no parent.
type FolderEntry struct {
	Path       string
	Name       string
	ParentPath string
	FileCount  int
}

// IndexedFile is one document in an index snapshot.
type IndexedFile struct {
	ID           int64
	FileName     string
	FolderPath   string
	RelativePath string
	HeadingCount int
}

// IndexSnapshot is the flat folder/file listing produced by the indexer.
type IndexSnapshot struct {
	RootPath string
	Folders  []FolderEntry
	Files    []IndexedFile
}

// FileHeading is one heading of a document. Order is globally unique and
// monotonic within the document and defines document sequence; it is not the
// nesting depth.
type FileHeading struct {
	ID       int64
	Order    int64
	Level    int
	Text     string
	CopyText string
}

// TaggedBlock is a non-heading cited block that renders after a document's
// headings.
type TaggedBlock struct {
	Order      int64
	Text       string
	StyleLabel string
}

// FilePreview is the per-document payload fetched lazily by file id.
type FilePreview struct {
	FileID       int64
	AbsolutePath string
	Headings     []FileHeading
	Citations    []TaggedBlock
}

// Search hit kinds as reported by the engine.
const (
	HitKindFile    = "file"
	HitKindHeading = "heading"
	HitKindAuthor  = "author"
	HitKindChunk   = "chunk"
)

// SearchHit is one ranked local search result. Heading fields are only set
// for hits that point at a specific heading.
type SearchHit struct {
	Source       string
	Kind         string
	FileID       int64
	FileName     string
	RelativePath string
	AbsolutePath string
	HeadingLevel int
	HeadingText  string
	HeadingOrder int64
	// HasHeading reports whether the heading fields carry a real reference.
	HasHeading bool
	Score      float64
}

// RemoteTagHit is one result from the external tag-search service.
type RemoteTagHit struct {
	ID           string
	Tag          string
	Citation     string
	RichHTML     string
	PlainText    string
	CopyText     string
	ParagraphXML []string
	SourcePath   string
}
