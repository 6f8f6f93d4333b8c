// Package extract turns raw predictions into the output fields a
// signature declares. Extraction runs a fixed list of strategies in
// priority order and stops at the first one that produces a usable
// result; when every strategy misses, the caller gets a typed Error
// instead of fabricated placeholder values.
package extract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/filegrind/lmbridge-go/program"
)

// Error reports that no strategy produced any output value.
type Error struct {
	Fields []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("no values could be extracted for output fields %s", strings.Join(e.Fields, ", "))
}

// Strategy inspects pred for the wanted output fields. A strategy
// returns only values it actually found; it never invents filler.
type Strategy func(pred *program.Prediction, wanted []string) map[string]string

// Outputs extracts the wanted output fields from pred, trying each
// strategy in order: mapped attribute names, declared names, the
// internal store, repaired JSON mined from completion text, the first
// completion verbatim, and finally a sweep over every public
// attribute. A partial result wins over falling through; only a
// complete miss is an error.
func Outputs(pred *program.Prediction, wanted []string, fm program.FieldMap) (map[string]string, error) {
	strategies := []Strategy{
		MappedFields(fm),
		DirectFields,
		StoreFields,
		RepairedJSON,
		FirstCompletion,
		AttributeSweep,
	}
	for _, strategy := range strategies {
		if out := strategy(pred, wanted); usable(out) {
			return out, nil
		}
	}
	return nil, &Error{Fields: wanted}
}

// usable reports whether a strategy result counts as a hit: at least
// one value, and not every value placeholder-shaped.
func usable(out map[string]string) bool {
	for _, v := range out {
		if !looksLikePlaceholder(v) {
			return true
		}
	}
	return false
}

// looksLikePlaceholder matches the bracketed diagnostic shape broken
// engines emit in place of real values.
func looksLikePlaceholder(v string) bool {
	return strings.Contains(v, "[") && strings.Contains(v, "]")
}

// MappedFields reads the wanted fields through the field map.
func MappedFields(fm program.FieldMap) Strategy {
	return func(pred *program.Prediction, wanted []string) map[string]string {
		out := make(map[string]string)
		for _, name := range wanted {
			if v, ok := pred.Field(fm.Resolve(name)); ok {
				if s, ok := stringify(v); ok {
					out[name] = s
				}
			}
		}
		return out
	}
}

// DirectFields reads the wanted fields by their declared names.
func DirectFields(pred *program.Prediction, wanted []string) map[string]string {
	out := make(map[string]string)
	for _, name := range wanted {
		if v, ok := pred.Field(name); ok {
			if s, ok := stringify(v); ok {
				out[name] = s
			}
		}
	}
	return out
}

// StoreFields reads the wanted fields from the prediction's internal
// store.
func StoreFields(pred *program.Prediction, wanted []string) map[string]string {
	out := make(map[string]string)
	for _, name := range wanted {
		if v, ok := pred.StoreValue(name); ok {
			if s, ok := stringify(v); ok {
				out[name] = s
			}
		}
	}
	return out
}

// RepairedJSON mines completion texts for a JSON object carrying the
// wanted fields. Malformed JSON is repaired before decoding, which
// recovers single-quoted keys, trailing commas and similar model
// output damage.
func RepairedJSON(pred *program.Prediction, wanted []string) map[string]string {
	for _, completion := range pred.Completions {
		if completion == "" {
			continue
		}
		repaired, err := jsonrepair.JSONRepair(completion)
		if err != nil {
			continue
		}
		var doc map[string]any
		if err := json.Unmarshal([]byte(repaired), &doc); err != nil {
			continue
		}
		out := make(map[string]string)
		for _, name := range wanted {
			if v, ok := doc[name]; ok {
				if s, ok := stringify(v); ok {
					out[name] = s
				}
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// FirstCompletion hands the first completion text to the first wanted
// field, the classic single-answer rescue.
func FirstCompletion(pred *program.Prediction, wanted []string) map[string]string {
	if len(wanted) == 0 {
		return nil
	}
	text, ok := pred.FirstCompletion()
	if !ok {
		return nil
	}
	return map[string]string{wanted[0]: strings.TrimSpace(text)}
}

// AttributeSweep dumps every public prediction attribute, declared or
// not, skipping internal keys. It is the last resort before giving up.
func AttributeSweep(pred *program.Prediction, _ []string) map[string]string {
	out := make(map[string]string)
	for name, v := range pred.Fields {
		if strings.HasPrefix(name, "_") || name == "completions" {
			continue
		}
		if s, ok := stringify(v); ok {
			out[name] = s
		}
	}
	return out
}

// stringify renders one extracted value for the wire. Nulls do not
// count as found; structured values are re-encoded as compact JSON.
func stringify(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	case json.Number:
		return t.String(), true
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t), true
		}
		return string(raw), true
	}
}
