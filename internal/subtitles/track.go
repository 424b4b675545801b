package subtitles

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"subtitler/internal/fileutil"
)

// Target is one requested output language and its file name.
type Target struct {
	Language string
	FileName string
}

// Entry is one numbered subtitle block. Index is 1-based.
type Entry struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// Track is the full ordered set of entries for one language. Fallbacks counts
// entries that kept their source text because translation failed.
type Track struct {
	Language  string
	Entries   []Entry
	Fallbacks int
}

// WriteSRT writes the track as SRT blocks: index, timing line, text, blank line.
func (t Track) WriteSRT(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, entry := range t.Entries {
		bw.WriteString(strconv.Itoa(entry.Index))
		bw.WriteByte('\n')
		bw.WriteString(FormatTimestamp(entry.Start))
		bw.WriteString(" --> ")
		bw.WriteString(FormatTimestamp(entry.End))
		bw.WriteByte('\n')
		bw.WriteString(strings.TrimSpace(entry.Text))
		bw.WriteString("\n\n")
	}
	return bw.Flush()
}

// WriteFile writes the track to path through a temporary file so readers never
// see a partial track.
func (t Track) WriteFile(path string) error {
	if err := fileutil.WriteAtomic(path, t.WriteSRT); err != nil {
		return fmt.Errorf("write subtitle %s: %w", filepath.Base(path), err)
	}
	return nil
}
