package rows

import (
	"fmt"

	"folio/internal/engine"
	"folio/internal/outline"
)

func folderKey(path string) string      { return "folder:" + path }
func fileKey(id int64) string           { return fmt.Sprintf("file:%d", id) }
func loadingKey(id int64) string        { return fmt.Sprintf("loading:%d", id) }
func emptyKey(id int64) string          { return fmt.Sprintf("empty:%d", id) }
func headingKey(id, order int64) string { return fmt.Sprintf("heading:%d:%d", id, order) }
func citeKey(id, order int64) string    { return fmt.Sprintf("cite:%d:%d", id, order) }

// Search-mode keys carry a mode prefix so the same logical entity stays
// deterministic per mode.
func searchKey(key string) string { return "search:" + key }

// RemoteFolderKey is the key of the summary folder row for the remote
// tag-result block; hosts use it to route expand/collapse toggles.
const RemoteFolderKey = "search:remote"

func remoteHitKey(id string) string { return "search:remote:" + id }

func headingRow(fileID int64, node *outline.Node, baseDepth int) *Row {
	return &Row{
		Key:          headingKey(fileID, node.Heading.Order),
		Kind:         KindHeading,
		Depth:        baseDepth + node.Depth,
		Label:        node.Heading.Text,
		FileID:       fileID,
		HeadingLevel: node.Heading.Level,
		HeadingOrder: node.Heading.Order,
		CopyText:     node.Heading.CopyText,
		HasChildren:  node.HasChildren,
	}
}

func citationRow(fileID int64, c engine.TaggedBlock, depth int) *Row {
	return &Row{
		Key:          citeKey(fileID, c.Order),
		Kind:         KindCitation,
		Depth:        depth,
		Label:        c.Text,
		SubLabel:     c.StyleLabel,
		FileID:       fileID,
		HeadingOrder: c.Order,
		CopyText:     c.Text,
	}
}
