package ir

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed descriptor.schema.json
var descriptorSchemaJSON string

const descriptorSchemaURL = "https://github.com/roach88/wirecontract/descriptor.schema.json"

var (
	descriptorSchemaOnce sync.Once
	descriptorSchema     *jsonschema.Schema
	descriptorSchemaErr  error
)

// DescriptorSchema returns the compiled JSON Schema for the canonical form of
// an OperationDescriptor.
func DescriptorSchema() (*jsonschema.Schema, error) {
	descriptorSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(descriptorSchemaURL, strings.NewReader(descriptorSchemaJSON)); err != nil {
			descriptorSchemaErr = fmt.Errorf("adding descriptor schema: %w", err)
			return
		}
		descriptorSchema, descriptorSchemaErr = compiler.Compile(descriptorSchemaURL)
	})
	return descriptorSchema, descriptorSchemaErr
}

// ValidateDescriptorJSON checks canonical descriptor JSON against the
// descriptor schema.
func ValidateDescriptorJSON(data []byte) error {
	schema, err := DescriptorSchema()
	if err != nil {
		return err
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("parsing descriptor JSON: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("descriptor does not match schema: %w", err)
	}
	return nil
}
