package types

import (
	"errors"
	"testing"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr error
	}{
		{name: "plain bytes", input: "1024", want: 1024},
		{name: "zero bytes", input: "0", want: 0},
		{name: "bytes with B suffix", input: "512B", want: 512},
		{name: "kilobytes", input: "4k", want: 4 * KiB},
		{name: "kilobytes with iB", input: "100KiB", want: 100 * KiB},
		{name: "megabytes with B", input: "50MB", want: 50 * MiB},
		{name: "gigabytes", input: "2G", want: 2 * GiB},
		{name: "terabytes", input: "1TiB", want: TiB},
		{name: "surrounding whitespace", input: "  64M  ", want: 64 * MiB},
		{name: "decimal values truncated", input: "1.5G", want: 1610612736},

		{name: "empty string", input: "", wantErr: ErrInvalidSize},
		{name: "invalid suffix", input: "100X", wantErr: ErrInvalidSize},
		{name: "negative value", input: "-1M", wantErr: ErrNegativeSize},
		{name: "suffix only", input: "M", wantErr: ErrInvalidSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSize(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ParseSize(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSize(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  string
	}{
		{name: "zero", bytes: 0, want: "0 B"},
		{name: "bytes", bytes: 500, want: "500 B"},
		{name: "kilobytes", bytes: 1024, want: "1.0 KiB"},
		{name: "mixed size", bytes: 1536 * 1024, want: "1.5 MiB"},
		{name: "gigabytes", bytes: GiB, want: "1.0 GiB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatSize(tt.bytes); got != tt.want {
				t.Errorf("FormatSize(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestFileRecord_HumanSize(t *testing.T) {
	f := &FileRecord{Path: "/a", Size: 2048}
	if got := f.HumanSize(); got != "2.0 KiB" {
		t.Errorf("FileRecord.HumanSize() = %q, want %q", got, "2.0 KiB")
	}
}

func TestWastedBytes(t *testing.T) {
	g := DuplicateGroup{Digest: "d", Size: 100, Files: []string{"/a", "/b", "/c"}}
	if got := g.WastedBytes(); got != 200 {
		t.Errorf("DuplicateGroup.WastedBytes() = %d, want 200", got)
	}

	f := FolderGroup{Folders: []string{"/x", "/y"}, FileCount: 3, TotalSize: 4096}
	if got := f.WastedBytes(); got != 4096 {
		t.Errorf("FolderGroup.WastedBytes() = %d, want 4096", got)
	}

	if got := (DuplicateGroup{Size: 10, Files: []string{"/a"}}).WastedBytes(); got != 0 {
		t.Errorf("single member WastedBytes() = %d, want 0", got)
	}
}

func TestSortDuplicates(t *testing.T) {
	groups := []DuplicateGroup{
		{Digest: "b", Size: 10, Files: []string{"/1", "/2"}},
		{Digest: "a", Size: 10, Files: []string{"/3", "/4"}},
		{Digest: "c", Size: 5, Files: []string{"/5", "/6", "/7", "/8"}},
	}

	SortDuplicates(groups)

	want := []Digest{"c", "a", "b"}
	for i, d := range want {
		if groups[i].Digest != d {
			t.Errorf("groups[%d].Digest = %q, want %q", i, groups[i].Digest, d)
		}
	}
}

func TestResult_DuplicateMap(t *testing.T) {
	r := &Result{Duplicates: []DuplicateGroup{
		{Digest: "abc", Size: 1, Files: []string{"/a", "/b"}},
	}}

	m := r.DuplicateMap()
	if len(m) != 1 || len(m["abc"]) != 2 {
		t.Errorf("DuplicateMap() = %v, want one entry with two files", m)
	}
}

func TestDiagnostics_Total(t *testing.T) {
	d := Diagnostics{"permission_denied": 2, "io_error": 3}
	if got := d.Total(); got != 5 {
		t.Errorf("Total() = %d, want 5", got)
	}
}

func TestHashMode_String(t *testing.T) {
	if ModePrefix.String() != "prefix" || ModeFull.String() != "full" {
		t.Errorf("unexpected mode names %q %q", ModePrefix, ModeFull)
	}
}
