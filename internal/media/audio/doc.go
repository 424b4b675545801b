// Package audio converts arbitrary input media into the canonical waveform the
// recognizers expect: mono, 16 kHz, PCM s16le in a WAV container.
//
// Key types:
//   - Normalizer: runs ffmpeg under a unique per-invocation output name
//   - TranscodeError: carries ffmpeg's output when the transcoder fails
//   - Info: sample rate, channels, and duration read back from a WAV header
//
// Primary entry points:
//   - Normalizer.Normalize: transcode one input into the work directory
//   - Probe: inspect a WAV file without decoding its samples
package audio
