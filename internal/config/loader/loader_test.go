package loader

import (
	"errors"
	"testing"
	"testing/fstest"
)

func TestFormatFor(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"emulator.toml", FormatTOML, false},
		{"emulator.YAML", FormatYAML, false},
		{"emulator.yml", FormatYAML, false},
		{"dir/emulator.json", FormatJSON, false},
		{"emulator.ini", "", true},
		{"emulator", "", true},
	}

	for _, tt := range tests {
		got, err := FormatFor(tt.path)
		if (err != nil) != tt.wantErr {
			t.Errorf("FormatFor(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("FormatFor(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestFileLoader_Formats(t *testing.T) {
	fsys := fstest.MapFS{
		"emulator.toml": {Data: []byte("[storage]\nbackend = \"sqlite\"\npath = \"settings.db\"\n")},
		"emulator.yaml": {Data: []byte("storage:\n  backend: sqlite\n  path: settings.db\n")},
		"emulator.json": {Data: []byte(`{"storage": {"backend": "sqlite", "path": "settings.db"}}`)},
	}

	for _, name := range []string{"emulator.toml", "emulator.yaml", "emulator.json"} {
		t.Run(name, func(t *testing.T) {
			cfg, err := NewFileLoaderWithFS(fsys, name).Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			storage, ok := cfg["storage"].(map[string]any)
			if !ok {
				t.Fatalf("storage section missing: %#v", cfg)
			}
			if storage["backend"] != "sqlite" || storage["path"] != "settings.db" {
				t.Errorf("storage = %#v", storage)
			}
		})
	}
}

func TestFileLoader_MissingFile(t *testing.T) {
	cfg, err := NewFileLoaderWithFS(fstest.MapFS{}, "missing.toml").Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg != nil {
		t.Errorf("Load() = %v, want nil", cfg)
	}
}

func TestFileLoader_ParseError(t *testing.T) {
	fsys := fstest.MapFS{
		"bad.toml": {Data: []byte("[storage\nbackend = ")},
		"bad.json": {Data: []byte(`{"storage": `)},
		"bad.yaml": {Data: []byte("storage: [unclosed")},
	}

	for name := range fsys {
		t.Run(name, func(t *testing.T) {
			_, err := NewFileLoaderWithFS(fsys, name).Load()
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("Load() error = %v, want *ParseError", err)
			}
			if pe.Path != name {
				t.Errorf("ParseError.Path = %q, want %q", pe.Path, name)
			}
			if pe.Unwrap() == nil {
				t.Error("ParseError.Unwrap() = nil")
			}
		})
	}
}

func TestParseError_Position(t *testing.T) {
	_, err := Parse(FormatTOML, "x.toml", []byte("a = 1\nb = = 2\n"))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("Parse() error = %v", err)
	}
	if pe.Line != 2 {
		t.Errorf("Line = %d, want 2", pe.Line)
	}
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(FormatYAML, "empty.yaml", nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg == nil || len(cfg) != 0 {
		t.Errorf("Parse() = %#v, want empty map", cfg)
	}
}
