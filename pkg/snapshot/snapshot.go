// Package snapshot parses coverage summary exports into models.Snapshot.
//
// The input is the per-file/per-category JSON produced by Istanbul's
// json-summary reporter: an object keyed by file path plus the reserved
// "total" key. Input is validated once here against an embedded JSON schema
// so downstream code can rely on every category being present.
package snapshot

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/panbanda/couette/pkg/models"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "https://github.com/panbanda/couette/snapshot.schema.json"

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("failed to register snapshot schema: %w", err)
	}
	return c.Compile(schemaURL)
})

// Validate checks raw JSON against the summary schema without decoding it.
func Validate(data []byte) error {
	schema, err := compileSchema()
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrMalformedSnapshot, err)
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("%w: %v", models.ErrMalformedSnapshot, err)
	}
	return nil
}

// Parse validates and decodes a coverage summary. File order follows the
// order of keys in the document.
func Parse(data []byte) (*models.Snapshot, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedSnapshot, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: expected an object", models.ErrMalformedSnapshot)
	}

	var aggregate *models.FileCoverage
	var files []models.FileEntry

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrMalformedSnapshot, err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected a key, got %v", models.ErrMalformedSnapshot, tok)
		}

		var fc models.FileCoverage
		if err := dec.Decode(&fc); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", models.ErrMalformedSnapshot, key, err)
		}
		if err := fc.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", models.ErrMalformedSnapshot, key, err)
		}

		if key == models.TotalKey {
			aggregate = &fc
			continue
		}
		files = append(files, models.FileEntry{Path: key, Coverage: fc})
	}

	if aggregate == nil {
		return nil, fmt.Errorf("%w: missing %q entry", models.ErrMalformedSnapshot, models.TotalKey)
	}

	return models.NewSnapshot(aggregate, files), nil
}

// Read parses a summary from r.
func Read(r io.Reader) (*models.Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Load reads and parses the summary at path. A missing file surfaces as an
// error wrapping os.ErrNotExist.
func Load(path string) (*models.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	snap, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}

// Marshal encodes a snapshot in the summary export shape.
func Marshal(s *models.Snapshot) ([]byte, error) {
	return json.Marshal(s)
}
