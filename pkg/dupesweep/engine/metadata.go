package engine

import (
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/jamesainslie/dupesweep/pkg/dupesweep/types"
)

type metadataKey struct {
	name  string
	size  int64
	mtime int64
}

// FindMetadataDuplicates groups files by case-insensitive base name, size and
// modification time rounded to the nearest second. No content is read, so a
// match is only a hint. It returns the groups of two or more and the
// remaining paths, both sorted.
func FindMetadataDuplicates(records []types.FileRecord) ([]types.MetadataGroup, []string) {
	grouped := lo.GroupBy(uniqueRecords(records), func(f types.FileRecord) metadataKey {
		return metadataKey{
			name:  strings.ToLower(filepath.Base(f.Path)),
			size:  f.Size,
			mtime: f.ModTime.Round(time.Second).Unix(),
		}
	})

	var groups []types.MetadataGroup
	var unique []string
	for k, members := range grouped {
		paths := lo.Map(members, func(f types.FileRecord, _ int) string { return f.Path })
		if len(paths) == 1 {
			unique = append(unique, paths[0])
			continue
		}
		slices.Sort(paths)
		groups = append(groups, types.MetadataGroup{
			Name:  filepath.Base(paths[0]),
			Size:  k.size,
			Files: paths,
		})
	}

	slices.SortFunc(groups, func(a, b types.MetadataGroup) int {
		if wa, wb := int64(len(a.Files)-1)*a.Size, int64(len(b.Files)-1)*b.Size; wa != wb {
			if wa > wb {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Files[0], b.Files[0])
	})
	slices.Sort(unique)
	return groups, unique
}
