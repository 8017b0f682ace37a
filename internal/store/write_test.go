package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/internal/engine"
)

func TestDeriveFolders(t *testing.T) {
	got := deriveFolders(map[string]int{
		"topics/aff":    3,
		"topics/aff/t1": 1,
		"misc":          2,
	})

	want := []engine.FolderEntry{
		{Path: ""},
		{Path: "misc", Name: "misc", ParentPath: "", FileCount: 2},
		{Path: "topics", Name: "topics", ParentPath: ""},
		{Path: "topics/aff", Name: "aff", ParentPath: "topics", FileCount: 3},
		{Path: "topics/aff/t1", Name: "t1", ParentPath: "topics/aff", FileCount: 1},
	}
	require.Equal(t, want, got)
}

func TestDeriveFoldersRootFiles(t *testing.T) {
	got := deriveFolders(map[string]int{"": 4})
	require.Len(t, got, 1)
	assert.Equal(t, engine.FolderEntry{Path: "", FileCount: 4}, got[0])
}

func TestSchemaErrNamesBuildTag(t *testing.T) {
	base := errors.New("no such module: fts5")
	err := schemaErr(base)
	assert.Contains(t, err.Error(), "sqlite_fts5")
	assert.ErrorIs(t, err, base)

	other := errors.New("disk I/O error")
	assert.NotContains(t, schemaErr(other).Error(), "sqlite_fts5")
	assert.ErrorIs(t, schemaErr(other), other)
}
