package hasher

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupAlgorithm(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     string
		wantSize int
		wantErr  bool
	}{
		{name: "default", input: "", want: "sha256", wantSize: 32},
		{name: "sha1", input: "sha1", want: "sha1", wantSize: 20},
		{name: "sha512 mixed case", input: "SHA512", want: "sha512", wantSize: 64},
		{name: "xxhash", input: "xxhash", want: "xxhash", wantSize: 8},
		{name: "unknown", input: "md4", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := LookupAlgorithm(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownAlgorithm)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.Name)
			assert.Equal(t, tt.wantSize, a.Size)
			assert.Equal(t, tt.wantSize, a.New().Size())
		})
	}
}

func TestAlgorithms_DigestLength(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/f", []byte("content"), 0o644))

	for _, name := range Algorithms() {
		t.Run(name, func(t *testing.T) {
			h, err := New(Options{Fs: mem, Algorithm: name})
			require.NoError(t, err)

			d, err := h.Full("/f")
			require.NoError(t, err)
			assert.Len(t, string(d), h.Algorithm().Size*2)
		})
	}
}

func TestNew_UnknownAlgorithm(t *testing.T) {
	_, err := New(Options{Algorithm: "crc7"})
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)
}
