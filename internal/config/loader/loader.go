// Package loader reads emulator bootstrap configuration into plain maps.
//
// Files may be TOML, YAML or JSON; the format follows the file extension.
// Environment variables are mapped onto the same nested keys. Callers merge
// the resulting layers with DeepMerge, later layers winning.
package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Loader produces one configuration layer.
type Loader interface {
	// Load returns the layer. A source that does not exist yields nil, nil.
	Load() (map[string]any, error)
}

// FileSystem abstracts file reads so tests can use fstest.MapFS.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
}

// OSFS reads from the real file system.
type OSFS struct{}

// ReadFile implements FileSystem.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Format is a configuration file format.
type Format string

// Supported formats.
const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFor picks the format from the file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported config file extension %q", filepath.Ext(path))
	}
}

// FileLoader loads one configuration file.
type FileLoader struct {
	fs   FileSystem
	path string
}

// NewFileLoader creates a loader for path on the OS file system.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{fs: OSFS{}, path: path}
}

// NewFileLoaderWithFS creates a loader reading through fsys.
func NewFileLoaderWithFS(fsys FileSystem, path string) *FileLoader {
	return &FileLoader{fs: fsys, path: path}
}

// Path returns the file the loader reads.
func (l *FileLoader) Path() string {
	return l.path
}

// Load implements Loader.
func (l *FileLoader) Load() (map[string]any, error) {
	format, err := FormatFor(l.path)
	if err != nil {
		return nil, err
	}

	data, err := l.fs.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", l.path, err)
	}

	return Parse(format, l.path, data)
}

// Parse decodes data in the given format. source names the input in
// errors.
func Parse(format Format, source string, data []byte) (map[string]any, error) {
	var (
		out map[string]any
		err error
	)
	switch format {
	case FormatTOML:
		err = toml.Unmarshal(data, &out)
	case FormatYAML:
		err = yaml.Unmarshal(data, &out)
	case FormatJSON:
		err = json.Unmarshal(data, &out)
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}
	if err != nil {
		return nil, newParseError(source, err)
	}
	if out == nil {
		out = make(map[string]any)
	}
	return out, nil
}

// ParseError represents an error while parsing a configuration file.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
	Err     error
}

func newParseError(path string, err error) *ParseError {
	pe := &ParseError{Path: path, Message: err.Error(), Err: err}

	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		pe.Line, pe.Column = derr.Position()
	}
	var serr *json.SyntaxError
	if errors.As(err, &serr) {
		pe.Message = fmt.Sprintf("%s (offset %d)", serr.Error(), serr.Offset)
	}
	return pe
}

func (e *ParseError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("parse error in %s at line %d, column %d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
