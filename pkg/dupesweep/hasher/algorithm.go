package hasher

import (
	"crypto/sha1" //nolint:gosec // offered for compatibility with existing digests, not for security
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"hash"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// DefaultAlgorithm is used when no algorithm is configured.
const DefaultAlgorithm = "sha256"

// ErrUnknownAlgorithm is returned for an unregistered algorithm name.
var ErrUnknownAlgorithm = errors.New("unknown hash algorithm")

// Algorithm is a named hash constructor.
type Algorithm struct {
	// Name is the lowercase identifier used in config and flags.
	Name string

	// Size is the digest length in bytes.
	Size int

	// New returns a fresh hash state.
	New func() hash.Hash
}

var algorithms = map[string]Algorithm{
	"sha256": {Name: "sha256", Size: sha256.Size, New: sha256.New},
	"sha1":   {Name: "sha1", Size: sha1.Size, New: sha1.New},
	"sha512": {Name: "sha512", Size: sha512.Size, New: sha512.New},
	"xxhash": {Name: "xxhash", Size: 8, New: func() hash.Hash { return xxhash.New() }},
}

// LookupAlgorithm returns the algorithm registered under name.
// The empty name selects DefaultAlgorithm.
func LookupAlgorithm(name string) (Algorithm, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultAlgorithm
	}
	a, ok := algorithms[name]
	if !ok {
		return Algorithm{}, fmt.Errorf("%w: %q (available: %s)",
			ErrUnknownAlgorithm, name, strings.Join(Algorithms(), ", "))
	}
	return a, nil
}

// Algorithms returns registered algorithm names, sorted.
func Algorithms() []string {
	names := make([]string, 0, len(algorithms))
	for name := range algorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
