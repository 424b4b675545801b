package conversation

import (
	"fmt"
	"strings"

	"subtitler/internal/services"
)

// Menu labels shown as reply-keyboard buttons.
const (
	ButtonVideo   = "🎥 Video"
	ButtonAudio   = "🎵 Audio"
	ButtonYouTube = "🔗 YouTube Link"
)

// MenuLayout is the reply keyboard, one slice per row.
var MenuLayout = [][]string{
	{ButtonVideo, ButtonAudio},
	{ButtonYouTube},
}

// User-facing replies.
const (
	MessageMenu              = "🎬 Subtitle Generator Bot 🎬\n\nWhat is your input?"
	MessagePromptVideo       = "📂 Send me the video file or filename."
	MessagePromptAudio       = "📂 Send me the audio file or filename."
	MessagePromptURL         = "🔗 Send me the YouTube link."
	MessagePromptResolution  = "📺 Enter resolution (360p/480p/720p):"
	MessageInvalidChoice     = "❌ Invalid choice. Please pick Video, Audio, or YouTube Link."
	MessageInvalidFile       = "⚠️ Please send a valid file or filename."
	MessageInvalidURL        = "⚠️ Please send a valid http(s) link."
	MessageInvalidResolution = "⚠️ Please enter a resolution like 360p, 480p or 720p."
	MessageDownloadFailed    = "❌ Could not download the file. Please try again."
	MessageBusy              = "⏳ Still working on your previous request. Please wait."
	MessageCancelled         = "🛑 Cancelled."
	MessageHelp              = "Send /start to pick an input, or upload a video or audio file directly. /cancel resets the conversation."
)

var (
	videoSynonyms   = synonymSet("video", "🎥 video")
	audioSynonyms   = synonymSet("audio", "🎵 audio")
	youtubeSynonyms = synonymSet("youtube", "link", "youtube link", "🔗 youtube link")
)

func synonymSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// ParseChoice maps menu text to a Choice. Matching is case-insensitive and
// ignores surrounding whitespace.
func ParseChoice(text string) (Choice, bool) {
	key := strings.ToLower(strings.TrimSpace(text))
	if _, ok := videoSynonyms[key]; ok {
		return ChoiceVideo, true
	}
	if _, ok := audioSynonyms[key]; ok {
		return ChoiceAudio, true
	}
	if _, ok := youtubeSynonyms[key]; ok {
		return ChoiceYouTube, true
	}
	return "", false
}

func fileMissingMessage(name string) string {
	return fmt.Sprintf("❌ File %q was not found. Send another filename or upload the file.", strings.TrimSpace(name))
}

func uploadTooLargeMessage(limit int64) string {
	return fmt.Sprintf("⚠️ That file is too large. The limit is %d MB.", limit>>20)
}

// FailureMessage returns the reply sent when a run fails with err.
func FailureMessage(err error) string {
	switch services.Kind(err) {
	case services.KindNotFound:
		return "❌ The input file could not be found. Please send it again."
	case services.KindValidation:
		return "❌ That input is not valid. Please start again."
	case services.KindAcquisition:
		return "❌ Could not download the video, even at the best available quality. Check the link and try again."
	case services.KindTranscode:
		return "❌ Could not extract audio from that file. Is it a valid video or audio file?"
	case services.KindTranscription:
		return "❌ Transcription failed. Please try again later."
	case services.KindTimeout:
		return "⌛ Processing took too long and was stopped. Try a shorter file."
	default:
		return "❌ Something went wrong while generating subtitles. Please try again."
	}
}

func partialMessage(delivered, failed int) string {
	return fmt.Sprintf("⚠️ Sent %d of %d subtitle files; the rest could not be delivered.", delivered, delivered+failed)
}
