package definition

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

// Reader parses rule definitions from a stream.
type Reader interface {
	Read(r io.Reader) ([]RuleDefinition, error)
}

// ParseError reports a definitions file that could not be decoded.
type ParseError struct {
	Format  string // "json", "yaml" or "cue"
	File    string
	Line    int
	Column  int
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	loc := e.File
	if loc == "" {
		loc = "<input>"
	}
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d:%d", loc, e.Line, e.Column)
	}
	return fmt.Sprintf("%s: %s: %s", loc, e.Format, e.Message)
}

// IsParseError returns true if err is or wraps a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// JSONReader reads a JSON array of definitions or a single definition object.
// Unknown fields are rejected.
type JSONReader struct {
	File string // used in error messages
}

// Read implements Reader.
func (jr JSONReader) Read(r io.Reader) ([]RuleDefinition, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read definitions: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var defs []RuleDefinition
	if data[0] == '[' {
		err = dec.Decode(&defs)
	} else {
		var def RuleDefinition
		err = dec.Decode(&def)
		defs = append(defs, def)
	}
	if err != nil {
		return nil, &ParseError{Format: "json", File: jr.File, Message: err.Error()}
	}

	end := dec.InputOffset()
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		rest := bytes.TrimLeft(data[end:], " \t\r\n")
		off := len(data) - len(rest)
		line := bytes.Count(data[:off], []byte("\n")) + 1
		col := off - bytes.LastIndexByte(data[:off], '\n')
		return nil, &ParseError{
			Format:  "json",
			File:    jr.File,
			Line:    line,
			Column:  col,
			Message: "unexpected data after top-level value",
		}
	}
	return defs, nil
}

// YAMLReader reads a stream of YAML documents. Each document is either a
// single definition or a sequence of them. Unknown fields are rejected.
type YAMLReader struct {
	File string
}

// Read implements Reader.
func (yr YAMLReader) Read(r io.Reader) ([]RuleDefinition, error) {
	dec := yaml.NewDecoder(r)

	var defs []RuleDefinition
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Format: "yaml", File: yr.File, Message: err.Error()}
		}
		if len(doc.Content) == 0 {
			continue
		}

		body := doc.Content[0]
		if body.Kind == yaml.SequenceNode {
			var seq []RuleDefinition
			if err := decodeStrict(body, &seq); err != nil {
				return nil, &ParseError{Format: "yaml", File: yr.File, Line: body.Line, Column: body.Column, Message: err.Error()}
			}
			defs = append(defs, seq...)
			continue
		}

		var def RuleDefinition
		if err := decodeStrict(body, &def); err != nil {
			return nil, &ParseError{Format: "yaml", File: yr.File, Line: body.Line, Column: body.Column, Message: err.Error()}
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// decodeStrict decodes a node with unknown fields rejected. yaml.Node.Decode
// does not inherit the decoder's KnownFields setting.
func decodeStrict(n *yaml.Node, out any) error {
	data, err := yaml.Marshal(n)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(out)
}

// CUEReader reads a CUE file whose top-level rules field is a list of
// definitions:
//
//	rules: [{
//		name:      "weather"
//		condition: "rain == true"
//		actions: ["facts.put('output', 'take an umbrella')"]
//	}]
type CUEReader struct {
	File string
}

// Read implements Reader.
func (cr CUEReader) Read(r io.Reader) ([]RuleDefinition, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read definitions: %w", err)
	}

	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(cr.File))
	if err := v.Err(); err != nil {
		return nil, cr.parseError(err)
	}

	list := v.LookupPath(cue.ParsePath("rules"))
	if !list.Exists() {
		return nil, &ParseError{Format: "cue", File: cr.File, Message: "missing top-level rules list"}
	}

	var defs []RuleDefinition
	if err := list.Decode(&defs); err != nil {
		return nil, cr.parseError(err)
	}
	return defs, nil
}

// parseError keeps the position of the first CUE error.
func (cr CUEReader) parseError(err error) error {
	pe := &ParseError{Format: "cue", File: cr.File, Message: err.Error()}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return pe
	}
	first := errs[0]
	pe.Message = first.Error()
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		pe.Line = positions[0].Line()
		pe.Column = positions[0].Column()
	}
	return pe
}

// ReaderFor returns the reader for a file extension.
func ReaderFor(path string) (Reader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSONReader{File: path}, nil
	case ".yaml", ".yml":
		return YAMLReader{File: path}, nil
	case ".cue":
		return CUEReader{File: path}, nil
	default:
		return nil, fmt.Errorf("unsupported definitions file %q: want .json, .yaml, .yml or .cue", path)
	}
}

// ReadFile reads a definitions file, choosing the reader by extension.
func ReadFile(path string) ([]RuleDefinition, error) {
	reader, err := ReaderFor(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open definitions file: %w", err)
	}
	defer f.Close()

	return reader.Read(f)
}

// ReadFiles reads every file in order and concatenates the definitions.
func ReadFiles(paths ...string) ([]RuleDefinition, error) {
	var all []RuleDefinition
	for _, p := range paths {
		defs, err := ReadFile(p)
		if err != nil {
			return nil, err
		}
		all = append(all, defs...)
	}
	return all, nil
}
