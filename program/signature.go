package program

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// signatureSchemaJSON is the wire-level contract for signature
// definitions. Field entries may carry extra keys; only name and desc
// are interpreted here.
const signatureSchemaJSON = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["inputs", "outputs"],
	"properties": {
		"inputs": {
			"type": "array",
			"items": {"$ref": "#/definitions/field"}
		},
		"outputs": {
			"type": "array",
			"minItems": 1,
			"items": {"$ref": "#/definitions/field"}
		}
	},
	"definitions": {
		"field": {
			"type": "object",
			"required": ["name"],
			"properties": {
				"name": {"type": "string", "minLength": 1},
				"desc": {"type": "string"}
			}
		}
	}
}`

var signatureSchema *gojsonschema.Schema

func init() {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(signatureSchemaJSON))
	if err != nil {
		panic(fmt.Sprintf("signature schema does not compile: %v", err))
	}
	signatureSchema = schema
}

// Field is one named slot of a signature.
type Field struct {
	Name string `json:"name"`
	Desc string `json:"desc,omitempty"`
}

// Signature describes what a program consumes and what it must produce.
// A signature always has at least one output; inputs may be empty.
type Signature struct {
	Inputs  []Field `json:"inputs"`
	Outputs []Field `json:"outputs"`
}

// ParseSignature validates def against the signature schema and decodes
// it. Beyond the schema it rejects duplicate field names, since inputs
// and outputs share one namespace during execution.
func ParseSignature(def map[string]any) (*Signature, error) {
	result, err := signatureSchema.Validate(gojsonschema.NewGoLoader(def))
	if err != nil {
		return nil, fmt.Errorf("failed to validate signature: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return nil, fmt.Errorf("signature does not match schema: %s", strings.Join(msgs, "; "))
	}

	raw, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("failed to encode signature: %w", err)
	}
	var sig Signature
	if err := json.Unmarshal(raw, &sig); err != nil {
		return nil, fmt.Errorf("failed to decode signature: %w", err)
	}

	seen := make(map[string]struct{}, len(sig.Inputs)+len(sig.Outputs))
	for _, f := range append(append([]Field{}, sig.Inputs...), sig.Outputs...) {
		if _, dup := seen[f.Name]; dup {
			return nil, fmt.Errorf("duplicate field name: %s", f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return &sig, nil
}

// InputNames returns the input field names in declaration order.
func (s *Signature) InputNames() []string {
	names := make([]string, len(s.Inputs))
	for i, f := range s.Inputs {
		names[i] = f.Name
	}
	return names
}

// OutputNames returns the output field names in declaration order.
func (s *Signature) OutputNames() []string {
	names := make([]string, len(s.Outputs))
	for i, f := range s.Outputs {
		names[i] = f.Name
	}
	return names
}

// String renders the signature in arrow shorthand, e.g.
// "question, context -> answer".
func (s *Signature) String() string {
	return strings.Join(s.InputNames(), ", ") + " -> " + strings.Join(s.OutputNames(), ", ")
}
