// Package pipeline runs one subtitle job end to end.
//
// A run moves through fixed stages (acquire, normalize, transcribe, render,
// deliver). Each stage is timed, logged with the run and stage attached to the
// context, and wraps its error with the stage name so the conversation layer
// can pick a user-facing message by error kind. Every run is recorded in the
// history store, and the normalized audio and per-run output directory are
// cleaned up on every exit path.
//
// factory.go builds the external backends (recognizer, translator, fetcher)
// from configuration so the daemon and the process command share one wiring.
package pipeline
