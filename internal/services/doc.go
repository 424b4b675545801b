// Package services defines shared utilities consumed by the pipeline stages,
// the conversation state machine, and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp chat session IDs, run IDs, and stage names
//     for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     into the kinds reported back to users (not found, acquisition,
//     transcode, transcription, translation, validation).
//
// Use these helpers when wiring new stage logic so user-facing messages,
// history records, and metrics labels stay uniform across the pipeline.
package services
