// Package subtitles renders transcripts into SRT subtitle tracks.
//
// Each target language gets its own track. When the target matches the
// transcript's language the text is copied verbatim and the translator is
// never called; otherwise every segment is translated on its own, and a failed
// segment keeps its source text so a track is never aborted by one bad call.
//
// Key types:
//   - Renderer: per-segment translation with fallback, parallel across targets
//   - Track: the rendered entries for one language
//   - Target: a language code plus its output file name
//
// ParseSRT and ValidateSRT provide the basic timing checks run on written
// files before delivery.
package subtitles
