package conversation

import (
	"subtitler/internal/acquire"
	"subtitler/internal/pipeline"
)

// State names a session variant.
type State int

const (
	StateChoosingInput State = iota
	StateEnteringFilename
	StateEnteringURL
	StateEnteringResolution
	StateProcessing
)

func (s State) String() string {
	switch s {
	case StateChoosingInput:
		return "ChoosingInput"
	case StateEnteringFilename:
		return "EnteringFilename"
	case StateEnteringURL:
		return "EnteringURL"
	case StateEnteringResolution:
		return "EnteringResolution"
	case StateProcessing:
		return "Processing"
	default:
		return "Unknown"
	}
}

// Choice is the input type the user picked from the menu.
type Choice string

const (
	ChoiceVideo   Choice = "video"
	ChoiceAudio   Choice = "audio"
	ChoiceYouTube Choice = "youtube"
)

// Session is one of ChoosingInput, EnteringFilename, EnteringURL,
// EnteringResolution, or Processing.
type Session interface {
	State() State
	session()
}

// ChoosingInput is the initial state.
type ChoosingInput struct{}

// EnteringFilename waits for a typed file name or an upload.
type EnteringFilename struct {
	Choice Choice
}

// EnteringURL waits for a YouTube link.
type EnteringURL struct{}

// EnteringResolution waits for the maximum frame height for URL.
type EnteringResolution struct {
	URL string
}

// Processing holds the job currently running for the session.
type Processing struct {
	Choice Choice
	Job    pipeline.Job
}

func (ChoosingInput) State() State      { return StateChoosingInput }
func (EnteringFilename) State() State   { return StateEnteringFilename }
func (EnteringURL) State() State        { return StateEnteringURL }
func (EnteringResolution) State() State { return StateEnteringResolution }
func (Processing) State() State         { return StateProcessing }

func (ChoosingInput) session()      {}
func (EnteringFilename) session()   {}
func (EnteringURL) session()        {}
func (EnteringResolution) session() {}
func (Processing) session()         {}

// Resolution returns the requested height for YouTube jobs.
func (p Processing) Resolution() (int, bool) {
	if p.Job.Kind != acquire.KindYouTube {
		return 0, false
	}
	return p.Job.Resolution, true
}

// Upload describes an attachment received from the chat transport.
type Upload struct {
	Kind     acquire.Kind
	FileID   string
	FileName string
	Size     int64
}

// Event is one inbound chat message. Exactly one of Text or Upload is set for
// well-formed events; events with neither are treated as unsupported input.
type Event struct {
	SessionID int64
	Text      string
	Upload    *Upload

	// CorrelationID ties log lines to the inbound message, when known.
	CorrelationID string
}
