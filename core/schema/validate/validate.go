// Package validate checks wire JSON against the embedded schemas before the
// engine sees it.
package validate

import (
	"embed"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/kaptinlin/jsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	compileOnce sync.Once
	compiled    map[string]*jsonschema.Schema
	compileErr  error
)

// Names returns the embedded schema names, sorted.
func Names() []string {
	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		names = append(names, name[:len(name)-len(".json")])
	}
	sort.Strings(names)
	return names
}

// Validate checks JSON bytes against the named embedded schema.
func Validate(name string, data []byte) error {
	schema, err := lookup(name)
	if err != nil {
		return err
	}
	result := schema.ValidateJSON(data)
	if result.IsValid() {
		return nil
	}
	return fmt.Errorf("schema validation failed: %v", result.Errors)
}

// ValidateFile checks a JSON file against the named embedded schema.
func ValidateFile(name, jsonPath string) error {
	data, err := os.ReadFile(jsonPath) // #nosec G304 -- path is explicit local user input.
	if err != nil {
		return fmt.Errorf("read json: %w", err)
	}
	return Validate(name, data)
}

func lookup(name string) (*jsonschema.Schema, error) {
	compileOnce.Do(compileAll)
	if compileErr != nil {
		return nil, compileErr
	}
	schema, ok := compiled[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q, have %v", name, Names())
	}
	return schema, nil
}

func compileAll() {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	compiled = make(map[string]*jsonschema.Schema)
	for _, name := range Names() {
		data, err := schemaFS.ReadFile("schemas/" + name + ".json")
		if err != nil {
			compileErr = fmt.Errorf("read embedded schema %s: %w", name, err)
			return
		}
		schema, err := compiler.Compile(data)
		if err != nil {
			compileErr = fmt.Errorf("compile schema %s: %w", name, err)
			return
		}
		compiled[name] = schema
	}
}
