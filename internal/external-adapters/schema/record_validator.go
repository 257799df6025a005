// Package schema generates the JSON schema of signature records and validates
// .sig files against it.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
	validator "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/cloudfpga/cfbuild/internal/domain/entities"
)

// RecordSchemaID is the $id of the generated record schema
const RecordSchemaID = "https://cloudfpga.org/schemas/cfbuild/signature-record.json"

var identType = reflect.TypeOf(entities.Ident{})

// RecordValidator validates records against a schema reflected from
// entities.SignatureRecord
type RecordValidator struct {
	raw      []byte
	compiled *validator.Schema
}

// NewRecordValidator reflects and compiles the record schema
func NewRecordValidator() (*RecordValidator, error) {
	reflector := &jsonschema.Reflector{
		ExpandedStruct: true,
		Anonymous:      true,
		Mapper:         mapIdent,
	}

	s := reflector.Reflect(&entities.SignatureRecord{})
	s.ID = RecordSchemaID
	s.Title = "cFBuild signature record"

	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generated schema: %w", err)
	}

	compiler := validator.NewCompiler()
	if err := compiler.AddResource(RecordSchemaID, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("failed to load record schema: %w", err)
	}
	compiled, err := compiler.Compile(RecordSchemaID)
	if err != nil {
		return nil, fmt.Errorf("failed to compile record schema: %w", err)
	}

	return &RecordValidator{raw: raw, compiled: compiled}, nil
}

// Schema returns the indented JSON schema document
func (v *RecordValidator) Schema() []byte {
	return bytes.Clone(v.raw)
}

// ValidateRecord checks raw .sig bytes against the schema
func (v *RecordValidator) ValidateRecord(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%w: %v", entities.ErrInvalidRecord, err)
	}
	if err := v.compiled.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", entities.ErrInvalidRecord, err)
	}
	return nil
}

// mapIdent describes Ident as the string-or-integer it serializes to
func mapIdent(t reflect.Type) *jsonschema.Schema {
	if t == identType {
		return &jsonschema.Schema{
			OneOf: []*jsonschema.Schema{
				{Type: "string"},
				{Type: "integer"},
			},
		}
	}
	return nil
}
