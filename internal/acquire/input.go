package acquire

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"subtitler/internal/services"
)

const maxResolution = 4320

// ParseResolution accepts "480", "480p" or "480P" and returns the height.
func ParseResolution(value string) (int, error) {
	trimmed := strings.TrimSpace(value)
	trimmed = strings.TrimSuffix(strings.TrimSuffix(trimmed, "p"), "P")
	height, err := strconv.Atoi(trimmed)
	if err != nil || height <= 0 || height > maxResolution {
		return 0, services.Wrap(services.ErrValidation, "acquire", "resolution", fmt.Sprintf("Invalid resolution %q", strings.TrimSpace(value)), nil)
	}
	return height, nil
}

// ValidateURL returns the trimmed URL if it is an absolute http(s) URL with a host.
func ValidateURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", services.Wrap(services.ErrValidation, "acquire", "url", fmt.Sprintf("Invalid link %q", trimmed), nil)
	}
	return trimmed, nil
}

// ResolveInputPath joins a user-typed relative name onto baseDir, rejecting
// absolute paths and names that escape the directory.
func ResolveInputPath(baseDir, name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || !filepath.IsLocal(trimmed) {
		return "", services.Wrap(services.ErrValidation, "acquire", "path", fmt.Sprintf("%q is not a relative file name", trimmed), nil)
	}
	return filepath.Join(baseDir, trimmed), nil
}

var uploadExtensions = map[Kind]string{
	KindVideo: ".mp4",
	KindAudio: ".mp3",
	KindVoice: ".ogg",
}

// UploadName picks the local file name for an uploaded attachment. The
// transport file ID always leads the name so that two chats sending
// "video.mp4" never share a file; the sender's base name follows when it is a
// plain name, otherwise the kind's default extension.
func UploadName(kind Kind, fileID, originalName string) string {
	id := sanitizeID(fileID)
	if base := filepath.Base(strings.TrimSpace(originalName)); originalName != "" && filepath.IsLocal(base) && base != "." {
		return id + "_" + base
	}
	return id + uploadExtensions[kind]
}

func sanitizeID(id string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(id) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "upload"
	}
	return b.String()
}
