package lmbridge

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/filegrind/lmbridge-go/capability"
	"github.com/filegrind/lmbridge-go/extract"
	"github.com/filegrind/lmbridge-go/program"
)

func (b *Bridge) handlePing(args map[string]any) map[string]any {
	workerID := b.workerID
	if v, ok := args["worker_id"].(string); ok && v != "" {
		workerID = v
	}
	return map[string]any{
		"status":               "ok",
		"bridge_type":          "lmbridge",
		"capability_available": b.capabilityAvailable(),
		"lm_configured":        b.lm != nil,
		"uptime":               time.Since(b.started).Seconds(),
		"mode":                 "pool-worker",
		"timestamp":            program.EpochSeconds(),
		"go_version":           runtime.Version(),
		"worker_id":            workerID,
		"requests_handled":     b.requests,
	}
}

func (b *Bridge) handleConfigureLM(ctx context.Context, args map[string]any) (map[string]any, error) {
	if !b.capabilityAvailable() {
		return nil, NewCapabilityUnavailableError()
	}

	model, _ := args["model"].(string)
	apiKey, _ := args["api_key"].(string)
	provider, _ := args["provider"].(string)
	if provider == "" {
		provider = "google"
	}

	if model == "" {
		return nil, NewInvalidArgumentError("Model name is required")
	}
	if apiKey == "" {
		apiKey = b.envCredential
	}
	if apiKey == "" {
		return nil, NewInvalidArgumentError("API key is required")
	}
	if provider != "google" || !strings.HasPrefix(model, "gemini") {
		return nil, NewConfigurationFailedError(
			fmt.Sprintf("Unsupported provider/model: %s/%s", provider, model), nil)
	}

	client, err := b.lmFactory(provider, model, apiKey)
	if err != nil {
		return nil, NewConfigurationFailedError(
			fmt.Sprintf("LM configuration failed: %v", err), err)
	}
	instrumented := &instrumentedLM{client: client, collector: b.collector}

	probeCtx, cancel := context.WithTimeout(ctx, b.probeTimeout)
	defer cancel()
	if _, err := instrumented.Complete(probeCtx, capability.CompletionRequest{
		Prompt: "Hello, this is a test.",
	}); err != nil {
		return nil, NewConfigurationFailedError(
			fmt.Sprintf("LM configuration failed: %v", err), err)
	}

	b.lm = instrumented
	b.logger.Info("language model configured", "provider", provider, "model", model)

	return map[string]any{
		"status":   "ok",
		"message":  fmt.Sprintf("Configured %s language model", model),
		"model":    model,
		"provider": provider,
	}, nil
}

func (b *Bridge) handleCreateProgram(args map[string]any) (map[string]any, error) {
	id, _ := args["id"].(string)
	if id == "" {
		return nil, NewInvalidArgumentError("Program ID is required")
	}
	sigDef, ok := args["signature"].(map[string]any)
	if !ok || len(sigDef) == 0 {
		return nil, NewInvalidArgumentError("Signature is required")
	}
	instructions, _ := args["instructions"].(string)
	kindName, _ := args["program_type"].(string)
	if kindName == "" {
		kindName = string(program.KindPredict)
	}

	sig, err := program.ParseSignature(sigDef)
	if err != nil {
		return nil, NewInvalidArgumentError(fmt.Sprintf("Invalid signature: %v", err))
	}

	engine, ok := b.engines[program.Kind(kindName)]
	if !ok {
		return nil, NewUnsupportedKindError(kindName)
	}

	unit, fieldMap, err := engine.BuildUnit(sig, instructions)
	if err != nil {
		if errors.Is(err, capability.ErrUnavailable) {
			return nil, NewCapabilityUnavailableError()
		}
		return nil, NewExecutionFailedError(fmt.Sprintf("Failed to create program: %v", err), err)
	}

	rec, err := program.NewRecord(id, program.Kind(kindName), sig, sigDef, instructions)
	if err != nil {
		return nil, NewExecutionFailedError(fmt.Sprintf("Failed to create program: %v", err), err)
	}
	rec.Unit = unit
	rec.FieldMap = fieldMap
	b.registry.Put(rec)

	b.logger.Info("program created",
		"program_id", id,
		"program_type", kindName,
		"signature", sig.String())

	return map[string]any{
		"status":        "ok",
		"program_id":    id,
		"signature_def": sigDef,
		"program_type":  kindName,
		"fingerprint":   rec.Fingerprint,
	}, nil
}

func (b *Bridge) handleExecuteProgram(ctx context.Context, args map[string]any) (map[string]any, error) {
	id, _ := args["program_id"].(string)
	if id == "" {
		return nil, NewInvalidArgumentError("Program ID is required")
	}
	inputs, _ := args["inputs"].(map[string]any)
	if inputs == nil {
		inputs = map[string]any{}
	}

	if raw, present := args["program_data"]; present && raw != nil {
		data, ok := raw.(map[string]any)
		if !ok {
			return nil, NewInvalidArgumentError("program_data must be an object")
		}
		return b.executeSnapshot(ctx, id, data, inputs)
	}
	return b.executeLocal(ctx, id, inputs)
}

func (b *Bridge) executeLocal(ctx context.Context, id string, inputs map[string]any) (map[string]any, error) {
	rec, ok := b.registry.Get(id)
	if !ok {
		return nil, NewNotFoundError(id)
	}

	outputs, err := b.runUnit(ctx, rec.Unit, rec.FieldMap, rec.Signature, inputs)
	if err != nil {
		return nil, mapUnitError(err)
	}
	rec.MarkExecuted()

	b.logger.Debug("program executed",
		"program_id", id,
		"execution_count", rec.ExecutionCount)

	return map[string]any{
		"status":          "ok",
		"program_id":      id,
		"inputs":          inputs,
		"outputs":         outputs,
		"execution_count": rec.ExecutionCount,
	}, nil
}

// executeSnapshot serves the cross-worker path: the caller supplies
// the stored program definition and this worker rebuilds a transient
// unit for one invocation. Nothing is written to the registry.
func (b *Bridge) executeSnapshot(ctx context.Context, id string, data, inputs map[string]any) (map[string]any, error) {
	snap, err := program.ParseSnapshot(data)
	if err != nil {
		return nil, NewExecutionFailedError(fmt.Sprintf("Failed to recreate program: %v", err), err)
	}

	engine, ok := b.engines[snap.Kind]
	if !ok {
		return nil, NewUnsupportedKindError(string(snap.Kind))
	}

	sig, err := program.ParseSignature(snap.SignatureDef)
	if err != nil {
		return nil, NewExecutionFailedError(fmt.Sprintf("Failed to recreate program: %v", err), err)
	}

	if fp, match, err := snap.VerifyFingerprint(); err == nil && !match {
		b.logger.Warn("snapshot fingerprint mismatch",
			"program_id", id,
			"stored", snap.Fingerprint,
			"computed", fp)
	}

	unit, fieldMap, err := engine.BuildUnit(sig, snap.Instructions)
	if err != nil {
		if errors.Is(err, capability.ErrUnavailable) {
			return nil, NewCapabilityUnavailableError()
		}
		return nil, NewExecutionFailedError(fmt.Sprintf("Failed to recreate program: %v", err), err)
	}

	outputs, err := b.runUnit(ctx, unit, fieldMap, sig, inputs)
	if err != nil {
		return nil, mapUnitError(err)
	}

	programID := snap.ProgramID
	if programID == "" {
		programID = id
	}
	return map[string]any{
		"status":         "ok",
		"outputs":        outputs,
		"program_id":     programID,
		"execution_time": program.EpochSeconds(),
	}, nil
}

// runUnit invokes a unit and extracts the declared outputs, the shared
// tail of the local and snapshot execution paths.
func (b *Bridge) runUnit(ctx context.Context, unit program.Unit, fieldMap program.FieldMap, sig *program.Signature, inputs map[string]any) (map[string]string, error) {
	mapped := make(map[string]any, len(inputs))
	for k, v := range inputs {
		mapped[fieldMap.Resolve(k)] = v
	}

	pred, err := unit.Invoke(ctx, mapped)
	if err != nil {
		return nil, err
	}
	return extract.Outputs(pred, sig.OutputNames(), fieldMap)
}

// mapUnitError classifies an invocation failure into the bridge
// taxonomy.
func mapUnitError(err error) *Error {
	switch {
	case errors.Is(err, capability.ErrNoLanguageModel):
		return NewNoLanguageModelError()
	case errors.Is(err, capability.ErrUnavailable):
		return NewCapabilityUnavailableError()
	}
	var extractErr *extract.Error
	if errors.As(err, &extractErr) {
		return NewExtractionFailedError(err)
	}
	return NewExecutionFailedError(fmt.Sprintf("Program execution failed: %v", err), err)
}

func (b *Bridge) handleGetProgram(args map[string]any) (map[string]any, error) {
	id, _ := args["program_id"].(string)
	if id == "" {
		return nil, NewInvalidArgumentError("Program ID is required")
	}
	rec, ok := b.registry.Get(id)
	if !ok {
		return nil, NewNotFoundError(id)
	}
	return map[string]any{
		"status":          "ok",
		"program_id":      rec.ID,
		"signature_def":   rec.SignatureDef,
		"instructions":    rec.Instructions,
		"program_type":    string(rec.Kind),
		"created_at":      rec.CreatedAt,
		"execution_count": rec.ExecutionCount,
		"fingerprint":     rec.Fingerprint,
	}, nil
}

func (b *Bridge) handleListPrograms() map[string]any {
	records := b.registry.List()
	programs := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		programs = append(programs, map[string]any{
			"program_id":      rec.ID,
			"program_type":    string(rec.Kind),
			"created_at":      rec.CreatedAt,
			"execution_count": rec.ExecutionCount,
		})
	}
	return map[string]any{
		"status":   "ok",
		"programs": programs,
		"count":    len(programs),
	}
}

func (b *Bridge) handleDeleteProgram(args map[string]any) (map[string]any, error) {
	id, _ := args["program_id"].(string)
	if id == "" {
		return nil, NewInvalidArgumentError("Program ID is required")
	}
	if !b.registry.Delete(id) {
		return nil, NewNotFoundError(id)
	}
	b.logger.Info("program deleted", "program_id", id)
	return map[string]any{
		"status":     "ok",
		"program_id": id,
		"message":    "Program deleted successfully",
	}, nil
}

func (b *Bridge) handleClearSession() map[string]any {
	count := b.registry.Clear()
	b.logger.Info("session cleared", "programs_removed", count)
	return map[string]any{
		"status":  "ok",
		"message": fmt.Sprintf("Cleared %d programs", count),
		"count":   count,
	}
}
