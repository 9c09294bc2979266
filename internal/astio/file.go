package astio

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"kestrel/internal/ast"
)

// Format selects the document encoding.
type Format uint8

const (
	FormatYAML Format = iota + 1
	FormatMsgpack
)

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatMsgpack:
		return "msgpack"
	default:
		return "unknown"
	}
}

// FormatOf picks the encoding from a file name: .kast is msgpack, .kast.yaml
// (or any .yaml/.yml) is YAML.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".kast":
		return FormatMsgpack, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("%s: unknown AST document extension", path)
	}
}

// ProgramName strips the document extensions from a path: "a/b.kast.yaml"
// becomes "b".
func ProgramName(path string) string {
	base := filepath.Base(path)
	for _, ext := range []string{".yaml", ".yml", ".kast"} {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// Unmarshal decodes raw document bytes.
func Unmarshal(data []byte, format Format) (*Document, error) {
	var doc Document
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
	case FormatMsgpack:
		if err := msgpack.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
	default:
		return nil, fmt.Errorf("unsupported format %s", format)
	}
	return &doc, nil
}

// Marshal writes doc in the given encoding.
func Marshal(w io.Writer, doc *Document, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case FormatMsgpack:
		enc := msgpack.NewEncoder(w)
		enc.UseCompactInts(true)
		return enc.Encode(doc)
	default:
		return fmt.Errorf("unsupported format %s", format)
	}
}

// ReadFile loads the program stored at path. The returned name is the
// document's name, or the file name without extensions.
func ReadFile(path string, alloc *ast.Allocator) (*ast.Program, string, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	doc, err := Unmarshal(data, format)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	prog, err := Decode(doc, alloc)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	name := doc.Name
	if name == "" {
		name = ProgramName(path)
	}
	return prog, name, nil
}

// WriteFile encodes prog to path in the format its extension names.
func WriteFile(path, name string, prog *ast.Program) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	doc, err := Encode(name, prog)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Marshal(&buf, doc, format); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
