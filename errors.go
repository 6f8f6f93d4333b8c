package lmbridge

import "fmt"

// ErrorKind is the closed taxonomy of bridge failures. Kinds are
// stable identifiers for logs and tests; the wire carries only the
// message text.
type ErrorKind string

const (
	KindCapabilityUnavailable ErrorKind = "CapabilityUnavailable"
	KindUnsupportedKind       ErrorKind = "UnsupportedKind"
	KindNotFound              ErrorKind = "NotFound"
	KindNoLanguageModel       ErrorKind = "NoLanguageModelConfigured"
	KindConfigurationFailed   ErrorKind = "ConfigurationFailed"
	KindExecutionFailed       ErrorKind = "ExecutionFailed"
	KindExtractionFailed      ErrorKind = "ExtractionFailed"
	KindInvalidArgument       ErrorKind = "InvalidArgument"
	KindUnknownCommand        ErrorKind = "UnknownCommand"
)

// Error is a command failure with a classified kind. The Message is
// what callers see in the result envelope; Err, when set, carries the
// underlying cause for logs.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewCapabilityUnavailableError creates an error for commands that
// need the reasoning capability when none is linked.
func NewCapabilityUnavailableError() *Error {
	return &Error{
		Kind:    KindCapabilityUnavailable,
		Message: "Reasoning capability is not available",
	}
}

// NewUnsupportedKindError creates an error for unknown program kinds.
func NewUnsupportedKindError(kind string) *Error {
	return &Error{
		Kind:    KindUnsupportedKind,
		Message: fmt.Sprintf("Unsupported program type: %s", kind),
	}
}

// NewNotFoundError creates an error for unknown program identifiers.
func NewNotFoundError(programID string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("Program '%s' not found", programID),
	}
}

// NewNoLanguageModelError creates an error for executions attempted
// before any language model was configured.
func NewNoLanguageModelError() *Error {
	return &Error{
		Kind:    KindNoLanguageModel,
		Message: "No LM is loaded.",
	}
}

// NewConfigurationFailedError creates an error for rejected or failed
// language model configuration.
func NewConfigurationFailedError(message string, cause error) *Error {
	return &Error{
		Kind:    KindConfigurationFailed,
		Message: message,
		Err:     cause,
	}
}

// NewExecutionFailedError creates an error for failed program
// invocations.
func NewExecutionFailedError(message string, cause error) *Error {
	return &Error{
		Kind:    KindExecutionFailed,
		Message: message,
		Err:     cause,
	}
}

// NewExtractionFailedError creates an error for invocations whose
// model reply yielded no output values.
func NewExtractionFailedError(cause error) *Error {
	return &Error{
		Kind:    KindExtractionFailed,
		Message: fmt.Sprintf("Program execution failed: %v", cause),
		Err:     cause,
	}
}

// NewInvalidArgumentError creates an error for requests missing or
// malforming a required argument.
func NewInvalidArgumentError(message string) *Error {
	return &Error{
		Kind:    KindInvalidArgument,
		Message: message,
	}
}

// NewUnknownCommandError creates an error for commands outside the
// supported set.
func NewUnknownCommandError(command string) *Error {
	return &Error{
		Kind:    KindUnknownCommand,
		Message: fmt.Sprintf("Unknown command: %s", command),
	}
}
