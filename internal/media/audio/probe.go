package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-audio/wav"
)

// Info describes a WAV file's layout.
type Info struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Duration   time.Duration
}

// Probe reads the WAV header at path.
func Probe(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("probe %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		if err := dec.Err(); err != nil {
			return Info{}, fmt.Errorf("probe %s: %w", path, err)
		}
		return Info{}, errors.New("probe " + path + ": not a valid WAV file")
	}
	info := Info{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return Info{}, fmt.Errorf("probe %s: rewind: %w", path, err)
	}
	dec = wav.NewDecoder(f)
	if err := dec.FwdToPCM(); err != nil {
		return Info{}, fmt.Errorf("probe %s: locate data chunk: %w", path, err)
	}
	bytesPerSecond := int64(info.SampleRate) * int64(info.Channels) * int64(info.BitDepth/8)
	if bytesPerSecond > 0 {
		info.Duration = time.Duration(dec.PCMLen() * int64(time.Second) / bytesPerSecond)
	}
	return info, nil
}
