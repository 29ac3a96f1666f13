package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroValueAdmitsEverything(t *testing.T) {
	var f Filter
	assert.True(t, f.Match("/a/b.txt", 0))
	assert.False(t, f.Excluded("/a"))
}

func TestWithMinSize(t *testing.T) {
	tests := []struct {
		name    string
		minSize int64
		want    int64
	}{
		{name: "positive", minSize: 100, want: 100},
		{name: "zero", minSize: 0, want: 0},
		{name: "negative becomes zero", minSize: -1, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(WithMinSize(tt.minSize))
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.MinSize)
		})
	}
}

func TestWithExtensions(t *testing.T) {
	f, err := New(WithExtensions("JPG", ".png", " "))
	require.NoError(t, err)
	assert.Equal(t, []string{".jpg", ".png"}, f.Extensions)

	assert.True(t, f.Match("/photos/a.JPG", 1))
	assert.True(t, f.Match("/photos/b.png", 1))
	assert.False(t, f.Match("/photos/c.gif", 1))
}

func TestExcluded(t *testing.T) {
	f, err := New(WithExclude("*.tmp", "node_modules", "/data/cache", "**/build/**"))
	require.NoError(t, err)

	tests := []struct {
		path string
		want bool
	}{
		{"/data/x.tmp", true},
		{"/data/x.txt", false},
		{"/src/node_modules", true},
		{"/data/cache", true},
		{"/data/cache/a/b", true},
		{"/data/cached", false},
		{"/src/build/out.o", true},
		{"/src/builder/out.o", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Excluded(tt.path))
		})
	}
}

func TestMatch(t *testing.T) {
	f, err := New(
		WithMinSize(10),
		WithInclude("*.go", "**/docs/**"),
		WithExclude("*_test.go"),
	)
	require.NoError(t, err)

	tests := []struct {
		name string
		path string
		size int64
		want bool
	}{
		{name: "included by base name", path: "/src/main.go", size: 10, want: true},
		{name: "included by full path", path: "/src/docs/readme.md", size: 50, want: true},
		{name: "too small", path: "/src/main.go", size: 9, want: false},
		{name: "excluded wins", path: "/src/main_test.go", size: 100, want: false},
		{name: "not included", path: "/src/readme.md", size: 100, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Match(tt.path, tt.size))
		})
	}
}

func TestInvalidPattern(t *testing.T) {
	_, err := New(WithExclude("[unclosed"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPattern)
}
