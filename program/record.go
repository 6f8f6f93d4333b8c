// Package program holds the definitions a bridge worker keeps between
// requests: parsed signatures, the records built from them and the
// bounded registry those records live in.
package program

import "time"

// EpochSeconds returns the wall clock as fractional seconds since the
// Unix epoch, the time representation used on the wire.
func EpochSeconds() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}

// Record is one stored program. Records are created once and then
// mutated only through MarkExecuted; the registry hands out the same
// pointer to every caller.
type Record struct {
	ID           string
	Kind         Kind
	Signature    *Signature
	Instructions string

	// Unit is the invocable built for this record. It is owned
	// exclusively by the record and dies with it.
	Unit     Unit
	FieldMap FieldMap

	// SignatureDef is the definition exactly as the creator sent it,
	// echoed back on create_program and get_program.
	SignatureDef map[string]any

	// Fingerprint identifies the definition independent of wire key
	// order. Two records with equal signatures, kind and instructions
	// share a fingerprint.
	Fingerprint string

	CreatedAt      float64
	ExecutionCount int
	LastExecuted   float64
}

// NewRecord assembles a record from an already-parsed definition. The
// caller attaches the unit and field map built by its engine.
func NewRecord(id string, kind Kind, sig *Signature, def map[string]any, instructions string) (*Record, error) {
	fp, err := Fingerprint(def, kind, instructions)
	if err != nil {
		return nil, err
	}
	return &Record{
		ID:           id,
		Kind:         kind,
		Signature:    sig,
		Instructions: instructions,
		SignatureDef: def,
		Fingerprint:  fp,
		CreatedAt:    EpochSeconds(),
	}, nil
}

// MarkExecuted bumps the execution counter and stamps the execution
// time. Call it only after a successful run.
func (r *Record) MarkExecuted() {
	r.ExecutionCount++
	r.LastExecuted = EpochSeconds()
}
