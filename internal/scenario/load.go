package scenario

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	cuejson "cuelang.org/go/encoding/json"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// Format is a scenario file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatCUE  Format = "cue"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".json":
		return FormatJSON, true
	case ".cue":
		return FormatCUE, true
	}
	return "", false
}

// SchemaError is a scenario document rejected by the CUE schema.
type SchemaError struct {
	Message string
	Pos     token.Pos
}

func (e *SchemaError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// Load reads and parses a scenario file.
// Returns an error if the file doesn't exist, is malformed, fails the
// schema (unknown fields, wrong types), or is semantically invalid.
func Load(path string) (*Scenario, error) {
	format, ok := FormatFromPath(path)
	if !ok {
		return nil, fmt.Errorf("unsupported scenario file extension: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	return Parse(data, format, path)
}

// Parse decodes a scenario document. source names the document in error
// messages and is stored as Scenario.Source.
func Parse(data []byte, format Format, source string) (*Scenario, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile scenario schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Scenario"))

	// Every format is built from source so schema errors point into the
	// scenario file.
	var value cue.Value
	switch format {
	case FormatYAML:
		f, err := cueyaml.Extract(source, data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", format, err)
		}
		value = ctx.BuildFile(f)
	case FormatJSON:
		expr, err := cuejson.Extract(source, data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", format, err)
		}
		value = ctx.BuildExpr(expr)
	case FormatCUE:
		value = ctx.CompileBytes(data, cue.Filename(source))
	default:
		return nil, fmt.Errorf("unsupported scenario format %q", format)
	}
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", format, formatCUEError(err, source))
	}

	unified := def.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", formatCUEError(err, source))
	}

	// CUE documents are exported to JSON so a single strict decoder
	// handles every format.
	if format == FormatCUE {
		exported, err := unified.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("failed to export cue: %w", formatCUEError(err, source))
		}
		data = exported
	}

	var doc document
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", format, err)
	}

	s, err := convertDocument(&doc)
	if err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	s.Source = source
	return s, nil
}

// FindFiles returns every scenario file under root, sorted by path.
// root may also be a single file. filter is a glob matched against the
// base name without extension; empty matches everything.
func FindFiles(root, filter string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scenario path not found: %w", err)
	}
	if !info.IsDir() {
		if _, ok := FormatFromPath(root); !ok {
			return nil, fmt.Errorf("unsupported scenario file extension: %s", root)
		}
		return []string{root}, nil
	}

	var files []string
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			// Golden snapshots live next to scenarios.
			if info.Name() == "golden" && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := FormatFromPath(path); !ok {
			return nil
		}
		if filter != "" {
			base := filepath.Base(path)
			name := strings.TrimSuffix(base, filepath.Ext(base))
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// LoadDir loads every scenario FindFiles returns. It stops at the first
// file that fails to load.
func LoadDir(root, filter string) ([]*Scenario, error) {
	files, err := FindFiles(root, filter)
	if err != nil {
		return nil, err
	}

	scenarios := make([]*Scenario, 0, len(files))
	for _, file := range files {
		s, err := Load(file)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// formatCUEError keeps the first CUE error and its position, preferring
// a position inside source over one in the schema.
func formatCUEError(err error, source string) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	se := &SchemaError{Message: first.Error()}
	positions := cueerrors.Positions(first)
	if len(positions) > 0 {
		se.Pos = positions[0]
	}
	for _, pos := range positions {
		if pos.Filename() == source {
			se.Pos = pos
			break
		}
	}
	if len(errs) > 1 {
		se.Message = fmt.Sprintf("%s (and %d more errors)", se.Message, len(errs)-1)
	}
	return se
}
