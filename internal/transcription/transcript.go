package transcription

import "context"

// DefaultLanguage is assumed when the recognizer cannot determine one.
const DefaultLanguage = "en"

// Segment is one time-bounded span of recognized speech. Times are seconds.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// Transcript is the ordered segment list plus one language for the whole
// recording. Segments may overlap when the recognizer reports them that way.
type Transcript struct {
	Segments []Segment
	Language string
}

// Duration returns the end of the last segment.
func (t Transcript) Duration() float64 {
	var end float64
	for _, seg := range t.Segments {
		if seg.End > end {
			end = seg.End
		}
	}
	return end
}

// Recognizer is the speech-recognition backend. Language may be an ISO code or
// an English language name; Service normalizes it.
type Recognizer interface {
	Name() string
	Recognize(ctx context.Context, audioPath string) (Transcript, error)
}
