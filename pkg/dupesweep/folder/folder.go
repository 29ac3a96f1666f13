// Package folder finds directories whose entire contents are duplicated
// elsewhere in the scanned tree.
//
// Candidates are grouped first by a structure digest over relative paths and
// sizes, which needs no file content. Only groups that survive are compared
// by a content digest built from the full digests the file pass already
// computed; no file is hashed here. A folder with any file lacking a full
// digest is never reported.
package folder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/jamesainslie/dupesweep/pkg/dupesweep/logging"
	"github.com/jamesainslie/dupesweep/pkg/dupesweep/types"
)

// Fingerprint describes one candidate folder.
type Fingerprint struct {
	// Path is the folder path.
	Path string

	// Files holds the files under Path, at any depth, sorted by relative path.
	Files []Member

	// TotalSize is the sum of member sizes.
	TotalSize int64

	// StructureDigest is the hex SHA-256 over sorted "relpath:size" lines.
	StructureDigest string

	// ContentDigest is the hex SHA-256 over sorted "relpath:digest" lines.
	// Empty means undefined.
	ContentDigest string
}

// Member is one file inside a folder.
type Member struct {
	Rel  string
	Path string
	Size int64
}

// FileCount returns the number of files in the folder.
func (f *Fingerprint) FileCount() int { return len(f.Files) }

// Options configures Find.
type Options struct {
	// Root bounds candidate folders; directories above it are not considered.
	// Empty uses the deepest directory containing every file.
	Root string

	// KeepNested reports duplicate folders that lie inside another reported group.
	KeepNested bool
}

// Result is the outcome of Find.
type Result struct {
	// Groups holds duplicate folder groups, largest waste first.
	Groups []types.FolderGroup

	// Candidates is the number of non-empty folders fingerprinted.
	Candidates int

	// StructureGroups is the number of structure digests shared by two or more folders.
	StructureGroups int
}

// Find reports groups of at least two folders whose files have identical
// relative paths, sizes and full digests.
func Find(ctx context.Context, files []types.FileRecord, digests map[string]types.Digest, opts Options) (Result, error) {
	logger := logging.Get("folder")

	root := opts.Root
	if root == "" {
		root = CommonRoot(files)
	}

	prints := Fingerprints(files, root)
	res := Result{Candidates: len(prints)}

	byStructure := lo.GroupBy(prints, func(f *Fingerprint) string { return f.StructureDigest })
	var candidates [][]*Fingerprint
	for _, key := range sortedKeys(byStructure) {
		if group := byStructure[key]; len(group) >= 2 {
			candidates = append(candidates, group)
		}
	}
	res.StructureGroups = len(candidates)
	logger.Debug("fingerprinted folders", "folders", len(prints), "structure_groups", len(candidates))

	if len(candidates) == 0 {
		return res, nil
	}

	var groups [][]*Fingerprint
	for _, group := range candidates {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		for _, f := range group {
			f.ContentDigest = contentDigest(f, digests)
		}
		defined := lo.Filter(group, func(f *Fingerprint, _ int) bool { return f.ContentDigest != "" })
		byContent := lo.GroupBy(defined, func(f *Fingerprint) string { return f.ContentDigest })
		for _, key := range sortedKeys(byContent) {
			if g := byContent[key]; len(g) >= 2 {
				groups = append(groups, g)
			}
		}
	}

	if !opts.KeepNested {
		groups = dropNested(groups)
	}

	for _, g := range groups {
		paths := lo.Map(g, func(f *Fingerprint, _ int) string { return f.Path })
		sort.Strings(paths)
		res.Groups = append(res.Groups, types.FolderGroup{
			Folders:   paths,
			FileCount: g[0].FileCount(),
			TotalSize: g[0].TotalSize,
		})
	}
	types.SortFolders(res.Groups)

	logger.Debug("compared folders", "groups", len(res.Groups))
	return res, nil
}

// Fingerprints builds a fingerprint for every directory at or below root that
// is an ancestor of at least one file.
func Fingerprints(files []types.FileRecord, root string) []*Fingerprint {
	root = filepath.Clean(root)
	byDir := make(map[string]*Fingerprint)

	for _, file := range files {
		for dir := filepath.Dir(file.Path); within(dir, root); dir = filepath.Dir(dir) {
			fp, ok := byDir[dir]
			if !ok {
				fp = &Fingerprint{Path: dir}
				byDir[dir] = fp
			}
			rel, err := filepath.Rel(dir, file.Path)
			if err != nil {
				break
			}
			fp.Files = append(fp.Files, Member{Rel: filepath.ToSlash(rel), Path: file.Path, Size: file.Size})
			fp.TotalSize += file.Size

			if dir == root || dir == filepath.Dir(dir) {
				break
			}
		}
	}

	out := make([]*Fingerprint, 0, len(byDir))
	for _, fp := range byDir {
		sort.Slice(fp.Files, func(i, j int) bool { return fp.Files[i].Rel < fp.Files[j].Rel })
		fp.StructureDigest = structureDigest(fp)
		out = append(out, fp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func structureDigest(f *Fingerprint) string {
	h := sha256.New()
	for _, m := range f.Files {
		h.Write([]byte(m.Rel))
		h.Write([]byte{':'})
		h.Write([]byte(strconv.FormatInt(m.Size, 10)))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// contentDigest returns "" when any member lacks a full digest.
func contentDigest(f *Fingerprint, digests map[string]types.Digest) string {
	if len(f.Files) == 0 {
		return ""
	}
	h := sha256.New()
	for _, m := range f.Files {
		d, ok := digests[m.Path]
		if !ok || d == "" {
			return ""
		}
		h.Write([]byte(m.Rel))
		h.Write([]byte{':'})
		h.Write([]byte(d))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// dropNested removes groups whose every folder lies inside a folder of
// another group.
func dropNested(groups [][]*Fingerprint) [][]*Fingerprint {
	var all []string
	for _, g := range groups {
		for _, f := range g {
			all = append(all, f.Path)
		}
	}

	return lo.Filter(groups, func(g []*Fingerprint, _ int) bool {
		return !lo.EveryBy(g, func(f *Fingerprint) bool {
			return lo.SomeBy(all, func(other string) bool {
				return other != f.Path && Contains(other, f.Path)
			})
		})
	})
}

// Contains reports whether path lies strictly inside dir.
func Contains(dir, path string) bool {
	if dir == path {
		return false
	}
	if dir == string(filepath.Separator) {
		return strings.HasPrefix(path, dir)
	}
	return strings.HasPrefix(path, dir+string(filepath.Separator))
}

func within(dir, root string) bool {
	return dir == root || Contains(root, dir)
}

// CommonRoot returns the deepest directory containing every file.
func CommonRoot(files []types.FileRecord) string {
	if len(files) == 0 {
		return ""
	}
	root := filepath.Dir(files[0].Path)
	for _, f := range files[1:] {
		for !within(filepath.Dir(f.Path), root) {
			parent := filepath.Dir(root)
			if parent == root {
				return root
			}
			root = parent
		}
	}
	return root
}

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
