package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/filegrind/lmbridge-go/program"
)

const (
	defaultMaxTokens   = 1000
	defaultTemperature = 0.0
)

// PredictEngine builds single-shot completion units. Each unit prompts
// the configured model with a field-labelled template and parses the
// "name: value" sections of the reply into prediction attributes.
type PredictEngine struct {
	lm          LMSource
	maxTokens   int
	temperature float64
	logger      *slog.Logger
}

// PredictOption configures a PredictEngine.
type PredictOption func(*PredictEngine)

// WithMaxTokens caps the completion length requested from the model.
func WithMaxTokens(n int) PredictOption {
	return func(e *PredictEngine) { e.maxTokens = n }
}

// WithTemperature sets the sampling temperature for completions.
func WithTemperature(t float64) PredictOption {
	return func(e *PredictEngine) { e.temperature = t }
}

// WithPredictLogger sets the logger for invocation debug output.
func WithPredictLogger(l *slog.Logger) PredictOption {
	return func(e *PredictEngine) { e.logger = l }
}

// NewPredictEngine builds the engine. Units resolve their model
// through lm on every invocation, so the engine works for programs
// created before a model is configured.
func NewPredictEngine(lm LMSource, opts ...PredictOption) *PredictEngine {
	e := &PredictEngine{
		lm:          lm,
		maxTokens:   defaultMaxTokens,
		temperature: defaultTemperature,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Available always reports true; the engine itself has no external
// requirement beyond the model resolved at invocation time.
func (e *PredictEngine) Available() bool { return true }

// BuildUnit compiles sig and instructions into a predict unit.
func (e *PredictEngine) BuildUnit(sig *program.Signature, instructions string) (program.Unit, program.FieldMap, error) {
	if sig == nil || len(sig.Outputs) == 0 {
		return nil, nil, fmt.Errorf("signature must declare at least one output")
	}
	unit := &predictUnit{engine: e, sig: sig, instructions: instructions}
	return unit, program.IdentityFieldMap(sig), nil
}

type predictUnit struct {
	engine       *PredictEngine
	sig          *program.Signature
	instructions string
}

func (u *predictUnit) Invoke(ctx context.Context, inputs map[string]any) (*program.Prediction, error) {
	client := u.engine.lm()
	if client == nil {
		return nil, ErrNoLanguageModel
	}

	prompt := buildPredictPrompt(u.sig, u.instructions, inputs)
	resp, err := client.Complete(ctx, CompletionRequest{
		Prompt:      prompt,
		MaxTokens:   u.engine.maxTokens,
		Temperature: u.engine.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("language model call failed: %w", err)
	}

	u.engine.logger.Debug("predict unit completed",
		"signature", u.sig.String(),
		"model", client.Model(),
		"stop_reason", resp.StopReason)

	return parseCompletion(resp.Text, u.sig), nil
}

// buildPredictPrompt renders the field-labelled template: optional
// instructions, the field contract, the provided inputs, then the
// first output label to prime the reply format.
func buildPredictPrompt(sig *program.Signature, instructions string, inputs map[string]any) string {
	var b strings.Builder
	if instructions != "" {
		b.WriteString(instructions)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Given the fields %s, produce the fields %s.\n",
		backtickNames(sig.InputNames()), backtickNames(sig.OutputNames()))
	b.WriteString("Write each output on its own line as \"name: value\".\n")
	for _, f := range sig.Outputs {
		if f.Desc != "" {
			fmt.Fprintf(&b, "The field `%s` is %s.\n", f.Name, f.Desc)
		}
	}
	b.WriteString("\n")
	for _, f := range sig.Inputs {
		v, ok := inputs[f.Name]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", f.Name, stringifyInput(v))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s:", sig.Outputs[0].Name)
	return b.String()
}

func backtickNames(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "`" + n + "`"
	}
	return strings.Join(quoted, ", ")
}

func stringifyInput(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(raw)
	}
}

// parseCompletion splits text into labelled sections, one per declared
// output field. Label matching is case-insensitive and tolerates
// markdown emphasis around the name. Lines before the first label and
// sections for unknown labels are continuations; the raw text is kept
// as a completion for the extraction fallbacks.
func parseCompletion(text string, sig *program.Signature) *program.Prediction {
	pred := program.NewPrediction()
	if text == "" {
		return pred
	}
	pred.Completions = append(pred.Completions, text)

	wanted := make(map[string]string, len(sig.Outputs))
	for _, f := range sig.Outputs {
		wanted[strings.ToLower(f.Name)] = f.Name
	}

	// The prompt primes the first output label, so replies usually
	// open with the bare value. Re-attach the label unless the model
	// repeated it.
	if !startsWithLabel(text, wanted) {
		text = sig.Outputs[0].Name + ": " + strings.TrimSpace(text)
	}

	var current string
	var value strings.Builder
	flush := func() {
		if current == "" {
			return
		}
		v := strings.TrimSpace(value.String())
		pred.Fields[current] = v
		pred.Store[current] = v
		value.Reset()
		current = ""
	}

	for _, line := range strings.Split(text, "\n") {
		if name, rest, ok := cutLabel(line, wanted); ok {
			flush()
			current = name
			value.WriteString(rest)
			continue
		}
		if current != "" {
			value.WriteString("\n")
			value.WriteString(line)
		}
	}
	flush()
	return pred
}

func cutLabel(line string, wanted map[string]string) (string, string, bool) {
	label, rest, ok := strings.Cut(line, ":")
	if !ok {
		return "", "", false
	}
	label = strings.Trim(label, " \t*`")
	name, known := wanted[strings.ToLower(label)]
	if !known {
		return "", "", false
	}
	return name, strings.TrimSpace(rest), true
}

func startsWithLabel(text string, wanted map[string]string) bool {
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		_, _, ok := cutLabel(line, wanted)
		return ok
	}
	return false
}
