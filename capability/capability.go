// Package capability adapts language models into invocable program
// units. An engine implements Capability for one program kind; the
// bridge looks engines up by kind and asks them to build the unit a
// record will own.
//
// Engines never hold a model client directly. They receive an LMSource
// and consult it at invocation time, so programs created before the
// model is configured work once configuration arrives.
package capability

import (
	"errors"

	"github.com/filegrind/lmbridge-go/program"
)

// ErrUnavailable means no reasoning capability is linked into this
// process, so units cannot be built at all.
var ErrUnavailable = errors.New("reasoning capability is not available")

// ErrNoLanguageModel means a unit was invoked before any language
// model was configured.
var ErrNoLanguageModel = errors.New("no language model is loaded")

// LMSource resolves the language model to use for an invocation. It
// returns nil while no model is configured.
type LMSource func() LMClient

// Capability builds invocable units for one program kind.
type Capability interface {
	// Available reports whether the capability can build working
	// units in this process.
	Available() bool

	// BuildUnit compiles a signature and instructions into a unit.
	// The returned field map translates signature names into the
	// attribute names the unit's predictions expose.
	BuildUnit(sig *program.Signature, instructions string) (program.Unit, program.FieldMap, error)
}

// Unavailable is the stub wired in when no reasoning capability is
// linked. Every build fails with ErrUnavailable.
type Unavailable struct{}

// Available always reports false.
func (Unavailable) Available() bool { return false }

// BuildUnit always fails with ErrUnavailable.
func (Unavailable) BuildUnit(*program.Signature, string) (program.Unit, program.FieldMap, error) {
	return nil, nil, ErrUnavailable
}
