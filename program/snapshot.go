package program

import (
	"encoding/json"
	"fmt"
)

// Snapshot is the serialized record shape an external store hands back
// for cross-worker execution. Workers never write snapshots; they only
// rebuild invocables from them. Older writers omit the fingerprint.
type Snapshot struct {
	ProgramID      string         `json:"program_id"`
	SignatureDef   map[string]any `json:"signature_def"`
	Instructions   string         `json:"instructions,omitempty"`
	Kind           Kind           `json:"program_type,omitempty"`
	CreatedAt      float64        `json:"created_at,omitempty"`
	ExecutionCount int            `json:"execution_count,omitempty"`
	LastExecuted   float64        `json:"last_executed,omitempty"`
	Fingerprint    string         `json:"fingerprint,omitempty"`
}

// ParseSnapshot decodes the program_data value of an execute request.
// Unknown keys are ignored; a missing kind defaults to predict, which
// is what stores written before the kind field existed contain.
func ParseSnapshot(data map[string]any) (*Snapshot, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode program data: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode program data: %w", err)
	}
	if snap.Kind == "" {
		snap.Kind = KindPredict
	}
	return &snap, nil
}

// VerifyFingerprint recomputes the definition fingerprint and compares
// it to the one carried by the snapshot. It returns the recomputed
// value and whether it matched; a snapshot without a fingerprint
// always matches.
func (s *Snapshot) VerifyFingerprint() (string, bool, error) {
	fp, err := Fingerprint(s.SignatureDef, s.Kind, s.Instructions)
	if err != nil {
		return "", false, err
	}
	if s.Fingerprint == "" {
		return fp, true, nil
	}
	return fp, fp == s.Fingerprint, nil
}
