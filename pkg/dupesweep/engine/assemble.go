package engine

import (
	"path/filepath"
	"slices"

	"github.com/jamesainslie/dupesweep/pkg/dupesweep/types"
)

// Assembly is the file-level outcome after folder coverage is applied.
type Assembly struct {
	Duplicates []types.DuplicateGroup
	Unique     []string

	// Covered is the number of files removed because they lie inside a
	// duplicate folder.
	Covered int
}

// Assemble removes files inside any duplicate folder from the duplicate groups
// and the unique list. A group left with a single member dissolves into the
// unique list. Paths in excluded are dropped entirely. The result is sorted.
func Assemble(groups []types.DuplicateGroup, unique []string, folders []types.FolderGroup, excluded map[string]bool) Assembly {
	dirs := make(map[string]struct{})
	for _, g := range folders {
		for _, f := range g.Folders {
			dirs[filepath.Clean(f)] = struct{}{}
		}
	}
	covered := func(path string) bool {
		if len(dirs) == 0 {
			return false
		}
		dir := filepath.Dir(path)
		for {
			if _, ok := dirs[dir]; ok {
				return true
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				return false
			}
			dir = parent
		}
	}

	var out Assembly
	keep := make([]string, 0, len(unique))
	for _, p := range unique {
		switch {
		case excluded[p]:
		case covered(p):
			out.Covered++
		default:
			keep = append(keep, p)
		}
	}

	for _, g := range groups {
		var members []string
		for _, p := range g.Files {
			switch {
			case excluded[p]:
			case covered(p):
				out.Covered++
			default:
				members = append(members, p)
			}
		}
		switch len(members) {
		case 0:
		case 1:
			keep = append(keep, members[0])
		default:
			slices.Sort(members)
			g.Files = members
			out.Duplicates = append(out.Duplicates, g)
		}
	}

	slices.Sort(keep)
	out.Unique = keep
	types.SortDuplicates(out.Duplicates)
	return out
}
