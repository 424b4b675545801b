// Package transcription turns a normalized waveform into a time-aligned
// transcript and a detected source language.
//
// The speech recognizer is constructed once at startup and shared by every
// session. Service bounds concurrent use with a weighted semaphore, defaults a
// missing language to English, and tags recognizer failures with
// services.ErrTranscription. Failures are not retried here.
package transcription
