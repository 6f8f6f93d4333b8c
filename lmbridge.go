// Package lmbridge implements a language-model bridge worker: a
// process that reads length-prefixed JSON requests on stdin, runs
// them against declarative LM programs, and writes one response frame
// per request on stdout.
//
// The root package holds the dispatch loop and command handlers. This
// file flat re-exports the submodule surface so embedders can depend
// on a single import.
package lmbridge

import (
	"github.com/filegrind/lmbridge-go/capability"
	"github.com/filegrind/lmbridge-go/program"
	"github.com/filegrind/lmbridge-go/wire"
)

// Wire types and functions
type Request = wire.Request
type Response = wire.Response
type Limits = wire.Limits
type FrameReader = wire.FrameReader
type FrameWriter = wire.FrameWriter
type Client = wire.Client

var NewFrameReader = wire.NewFrameReader
var NewFrameWriter = wire.NewFrameWriter
var NewClient = wire.NewClient
var NewResponse = wire.NewResponse
var NewFaultResponse = wire.NewFaultResponse
var DecodeRequest = wire.DecodeRequest
var EncodeResponse = wire.EncodeResponse
var ErrFrameTooLarge = wire.ErrFrameTooLarge

// Program types and functions
type Record = program.Record
type Registry = program.Registry
type Signature = program.Signature
type Field = program.Field
type Snapshot = program.Snapshot
type Prediction = program.Prediction
type FieldMap = program.FieldMap
type Unit = program.Unit
// Kind constants live in the program package; the root Kind* names
// are error kinds.

var NewRegistry = program.NewRegistry
var NewRecord = program.NewRecord
var NewPrediction = program.NewPrediction
var ParseSignature = program.ParseSignature
var ParseSnapshot = program.ParseSnapshot
var IdentityFieldMap = program.IdentityFieldMap

// Capability types and functions
type Capability = capability.Capability
type LMClient = capability.LMClient
type LMSource = capability.LMSource
type CompletionRequest = capability.CompletionRequest
type CompletionResponse = capability.CompletionResponse
type TokenUsage = capability.TokenUsage
type GeminiClient = capability.GeminiClient
type PredictEngine = capability.PredictEngine

var NewGeminiClient = capability.NewGeminiClient
var NewPredictEngine = capability.NewPredictEngine
var ErrUnavailable = capability.ErrUnavailable
var ErrNoLanguageModel = capability.ErrNoLanguageModel

// Protocol constants
const DefaultMaxFrame = wire.DefaultMaxFrame
const MaxFrameHardLimit = wire.MaxFrameHardLimit
const DefaultRegistryCapacity = program.DefaultRegistryCapacity
