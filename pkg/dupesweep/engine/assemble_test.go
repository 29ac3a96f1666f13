package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/dupesweep/pkg/dupesweep/types"
)

func TestAssemble(t *testing.T) {
	groups := []types.DuplicateGroup{
		{Digest: "d1", Size: 10, Files: []string{"/r/keep/a", "/r/dup1/a", "/r/dup2/a"}},
		{Digest: "d2", Size: 20, Files: []string{"/r/dup1/b", "/r/dup2/b"}},
		{Digest: "d3", Size: 5, Files: []string{"/r/x", "/r/dup1/deep/c"}},
		{Digest: "d4", Size: 1, Files: []string{"/r/y", "/r/z"}},
	}
	unique := []string{"/r/u2", "/r/dup2/only", "/r/u1", "/r/failed"}
	folders := []types.FolderGroup{{Folders: []string{"/r/dup1", "/r/dup2"}}}

	got := Assemble(groups, unique, folders, map[string]bool{"/r/failed": true})

	assert.Equal(t, []types.DuplicateGroup{
		{Digest: "d4", Size: 1, Files: []string{"/r/y", "/r/z"}},
	}, got.Duplicates)
	assert.Equal(t, []string{"/r/keep/a", "/r/u1", "/r/u2", "/r/x"}, got.Unique)
	assert.Equal(t, 6, got.Covered)
}

func TestAssemble_PrefixSiblingIsNotCovered(t *testing.T) {
	groups := []types.DuplicateGroup{
		{Digest: "d", Size: 3, Files: []string{"/r/dup1/a", "/r/dup10/a"}},
	}
	folders := []types.FolderGroup{{Folders: []string{"/r/dup1", "/r/dup2"}}}

	got := Assemble(groups, nil, folders, nil)

	assert.Empty(t, got.Duplicates)
	assert.Equal(t, []string{"/r/dup10/a"}, got.Unique)
	assert.Equal(t, 1, got.Covered)
}

func TestAssemble_SortsByWaste(t *testing.T) {
	groups := []types.DuplicateGroup{
		{Digest: "small", Size: 1, Files: []string{"/b", "/a"}},
		{Digest: "big", Size: 100, Files: []string{"/d", "/c"}},
	}

	got := Assemble(groups, nil, nil, nil)

	require.Len(t, got.Duplicates, 2)
	assert.Equal(t, types.Digest("big"), got.Duplicates[0].Digest)
	assert.Equal(t, []string{"/c", "/d"}, got.Duplicates[0].Files)
	assert.Equal(t, []string{"/a", "/b"}, got.Duplicates[1].Files)
}

func TestFindMetadataDuplicates(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	records := []types.FileRecord{
		{Path: "/a/Report.pdf", Size: 100, ModTime: base},
		{Path: "/b/report.PDF", Size: 100, ModTime: base.Add(300 * time.Millisecond)},
		{Path: "/c/report.pdf", Size: 101, ModTime: base},
		{Path: "/d/notes.txt", Size: 5, ModTime: base},
		{Path: "/e/notes.txt", Size: 5, ModTime: base.Add(time.Hour)},
	}

	groups, unique := FindMetadataDuplicates(records)

	require.Len(t, groups, 1)
	assert.Equal(t, []string{"/a/Report.pdf", "/b/report.PDF"}, groups[0].Files)
	assert.Equal(t, "Report.pdf", groups[0].Name)
	assert.Equal(t, int64(100), groups[0].Size)
	assert.Equal(t, []string{"/c/report.pdf", "/d/notes.txt", "/e/notes.txt"}, unique)
}
