package postmanemitter

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed collection.schema.json
var collectionSchema string

const schemaURL = "collection.schema.json"

var (
	schemaOnce sync.Once
	compiled   *jsonschema.Schema
	compileErr error
)

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(schemaURL, strings.NewReader(collectionSchema)); err != nil {
		return nil, fmt.Errorf("add collection schema: %w", err)
	}
	return compiler.Compile(schemaURL)
}

// Validate checks encoded collection JSON against the subset of the Postman
// v2.1.0 schema that the importer enforces.
func Validate(data []byte) error {
	schemaOnce.Do(func() {
		compiled, compileErr = compileSchema()
	})
	if compileErr != nil {
		return fmt.Errorf("postmanemitter: compile collection schema: %w", compileErr)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("postmanemitter: decode collection: %w", err)
	}
	if err := compiled.Validate(doc); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			leaf := firstLeaf(verr)
			return fmt.Errorf("postmanemitter: collection violates schema at %q: %s", leaf.InstanceLocation, leaf.Message)
		}
		return fmt.Errorf("postmanemitter: collection violates schema: %w", err)
	}
	return nil
}

// firstLeaf follows the first cause down to the most specific failure.
func firstLeaf(err *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(err.Causes) > 0 {
		err = err.Causes[0]
	}
	return err
}
