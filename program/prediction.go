package program

import "context"

// FieldMap translates signature field names into the attribute names a
// prediction exposes. Engines currently hand out the identity mapping;
// the indirection exists so an engine that must sanitize names can do
// so without changing callers.
type FieldMap map[string]string

// IdentityFieldMap maps every field of sig to itself.
func IdentityFieldMap(sig *Signature) FieldMap {
	m := make(FieldMap, len(sig.Inputs)+len(sig.Outputs))
	for _, f := range sig.Inputs {
		m[f.Name] = f.Name
	}
	for _, f := range sig.Outputs {
		m[f.Name] = f.Name
	}
	return m
}

// Resolve returns the attribute name for field, falling back to the
// field name itself when no mapping is present.
func (m FieldMap) Resolve(field string) string {
	if mapped, ok := m[field]; ok && mapped != "" {
		return mapped
	}
	return field
}

// Prediction is the raw result of one unit invocation. Fields holds
// the attributes the engine parsed out of the completion, Store holds
// every labelled section whether declared or not, and Completions
// holds the untouched model texts. Output extraction decides which of
// the three to trust.
type Prediction struct {
	Fields      map[string]any
	Store       map[string]any
	Completions []string
}

// NewPrediction returns an empty prediction ready to be filled.
func NewPrediction() *Prediction {
	return &Prediction{
		Fields: make(map[string]any),
		Store:  make(map[string]any),
	}
}

// Field returns the attribute stored under name.
func (p *Prediction) Field(name string) (any, bool) {
	v, ok := p.Fields[name]
	return v, ok
}

// StoreValue returns the store entry under name.
func (p *Prediction) StoreValue(name string) (any, bool) {
	v, ok := p.Store[name]
	return v, ok
}

// FirstCompletion returns the first non-empty completion text.
func (p *Prediction) FirstCompletion() (string, bool) {
	for _, c := range p.Completions {
		if c != "" {
			return c, true
		}
	}
	return "", false
}

// Unit is one invocable program instance. A unit belongs to exactly
// one record and is dropped with it.
type Unit interface {
	Invoke(ctx context.Context, inputs map[string]any) (*Prediction, error)
}
