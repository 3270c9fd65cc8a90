// Package schema validates entry data files against an embedded JSON Schema.
package schema

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed entries.schema.json
var entriesSchema string

const schemaURL = "https://catalogue.local/schemas/entries.schema.json"

var compiled = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(schemaURL, strings.NewReader(entriesSchema)); err != nil {
		return nil, fmt.Errorf("entries schema load failed: %w", err)
	}
	s, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("entries schema compile failed: %w", err)
	}
	return s, nil
})

// Problem is one schema violation.
type Problem struct {
	// Location is a JSON pointer into the document, e.g. /3/tags/0/name.
	Location string
	Message  string
}

func (p Problem) String() string {
	loc := p.Location
	if loc == "" {
		loc = "/"
	}
	return loc + ": " + p.Message
}

// Error lists every violation found in one document.
type Error struct {
	Problems []Problem
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.String()
	}
	return fmt.Sprintf("%d schema violation(s): %s", len(e.Problems), strings.Join(parts, "; "))
}

// Schema returns the embedded schema document.
func Schema() string { return entriesSchema }

// Validate checks one entries document.
func Validate(r io.Reader) error {
	s, err := compiled()
	if err != nil {
		return err
	}

	dec := json.NewDecoder(r)
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("parsing document: %w", err)
	}
	if dec.More() {
		return errors.New("parsing document: trailing data after top-level value")
	}

	if err := s.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return &Error{Problems: leaves(ve, nil)}
		}
		return fmt.Errorf("validating document: %w", err)
	}
	return nil
}

// ValidateFile checks the entries document at path.
func ValidateFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return Validate(f)
}

// leaves flattens the cause tree down to the violations that have no
// further explanation.
func leaves(ve *jsonschema.ValidationError, out []Problem) []Problem {
	if len(ve.Causes) == 0 {
		return append(out, Problem{Location: ve.InstanceLocation, Message: ve.Message})
	}
	for _, c := range ve.Causes {
		out = leaves(c, out)
	}
	return out
}
