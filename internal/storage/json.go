package storage

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "go22dos://topics.schema.json"

//go:embed topics.schema.json
var schemaJSON []byte

var topicsSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, err
	}
	return compiler.Compile(schemaURL)
})

type jsonBackend struct{}

func (jsonBackend) name() string { return "json" }

func (jsonBackend) load(path string) (map[string][]Item, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, ioError("load", path, err)
	}
	if err := validateTopics(data); err != nil {
		return nil, nil, encodingError("load", path, err)
	}
	var topics map[string][]Item
	if err := json.Unmarshal(data, &topics); err != nil {
		return nil, nil, encodingError("load", path, err)
	}
	return topics, nil, nil
}

// validateTopics checks data against the embedded schema: an object whose
// values are arrays of status-prefixed strings.
func validateTopics(data []byte) error {
	schema, err := topicsSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if err := schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return errors.New(strings.Join(schemaMessages(ve, nil), "; "))
		}
		return err
	}
	return nil
}

func schemaMessages(err *jsonschema.ValidationError, out []string) []string {
	if len(err.Causes) == 0 {
		loc := err.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return append(out, fmt.Sprintf("%s: %s", loc, err.Message))
	}
	for _, cause := range err.Causes {
		out = schemaMessages(cause, out)
	}
	return out
}

// save writes through a temp file in the target directory and renames it
// over path.
func (jsonBackend) save(path string, topics map[string][]Item, _ []string) error {
	data, err := json.MarshalIndent(topics, "", "  ")
	if err != nil {
		return encodingError("save", path, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return ioError("save", path, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return ioError("save", path, err)
	}
	if err := tmp.Close(); err != nil {
		return ioError("save", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return ioError("save", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return ioError("save", path, err)
	}
	return nil
}
