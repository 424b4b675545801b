package subtitles

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// durationToleranceSeconds is how far the last cue may run past the media end.
const durationToleranceSeconds = 2.0

// ParseSRT parses SRT content into entries. Blocks without a timing line are
// rejected.
func ParseSRT(content string) ([]Entry, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimPrefix(content, "\ufeff")
	var entries []Entry
	for n, block := range strings.Split(strings.TrimSpace(content), "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		lines := strings.Split(block, "\n")
		if len(lines) < 2 {
			return nil, fmt.Errorf("block %d: missing timing line", n+1)
		}
		index, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil {
			return nil, fmt.Errorf("block %d: invalid index %q", n+1, lines[0])
		}
		parts := strings.Split(lines[1], "-->")
		if len(parts) != 2 {
			return nil, fmt.Errorf("block %d: invalid timing line %q", n+1, lines[1])
		}
		start, err := ParseTimestamp(parts[0])
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", n+1, err)
		}
		end, err := ParseTimestamp(parts[1])
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", n+1, err)
		}
		entries = append(entries, Entry{
			Index: index,
			Start: start,
			End:   end,
			Text:  strings.Join(lines[2:], "\n"),
		})
	}
	return entries, nil
}

// ValidateSRT checks a written SRT file and returns the issues found; an empty
// slice means it passed. mediaSeconds <= 0 skips the duration check.
func ValidateSRT(path string, mediaSeconds float64) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return []string{fmt.Sprintf("read_error: %v", err)}
	}
	entries, err := ParseSRT(string(data))
	if err != nil {
		return []string{fmt.Sprintf("timestamp_parse_error: %v", err)}
	}
	if len(entries) == 0 {
		return []string{"empty_subtitle_file"}
	}

	var issues []string
	last := 0.0
	for i, entry := range entries {
		if entry.Index != i+1 {
			issues = append(issues, fmt.Sprintf("index_gap: block %d has index %d", i+1, entry.Index))
		}
		if entry.End < entry.Start {
			issues = append(issues, fmt.Sprintf("negative_duration: cue %d", entry.Index))
		}
		last = math.Max(last, entry.End)
	}
	if mediaSeconds > 0 && last-mediaSeconds > durationToleranceSeconds {
		issues = append(issues, fmt.Sprintf("duration_mismatch: last cue %.1fs past media end", last-mediaSeconds))
	}
	return issues
}
