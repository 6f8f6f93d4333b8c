package program

// Kind names a program execution strategy. Execution engines are
// registered by Kind, so adding a strategy means adding an engine
// under a new Kind rather than growing a dispatch chain.
type Kind string

// KindPredict is a single-shot completion over the signature. It is
// the only strategy shipped today.
const KindPredict Kind = "predict"
