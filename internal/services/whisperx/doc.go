// Package whisperx runs WhisperX through uvx as a speech recognizer.
//
// The recognizer writes WhisperX's JSON output into a scratch directory next
// to the audio file, reads back the segments and detected language, and
// removes the scratch directory on every exit path.
//
// Configuration options (model, CUDA) are passed via Config.
package whisperx
