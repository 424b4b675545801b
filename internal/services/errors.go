package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound      = errors.New("input not found")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrExternalTool  = errors.New("external tool error")
	ErrAcquisition   = errors.New("acquisition failed")
	ErrTranscode     = errors.New("transcode failed")
	ErrTranscription = errors.New("transcription failed")
	ErrTranslation   = errors.New("translation failed")
	ErrTimeout       = errors.New("timeout")
)

// ErrorKind is the stable label used for history rows, metrics, and user messages.
type ErrorKind string

const (
	KindNone          ErrorKind = ""
	KindNotFound      ErrorKind = "input_not_found"
	KindValidation    ErrorKind = "validation"
	KindConfiguration ErrorKind = "configuration"
	KindAcquisition   ErrorKind = "acquisition_failed"
	KindTranscode     ErrorKind = "transcode_failed"
	KindTranscription ErrorKind = "transcription_failed"
	KindTranslation   ErrorKind = "translation_failed"
	KindTimeout       ErrorKind = "timeout"
	KindExternalTool  ErrorKind = "external_tool"
	KindUnknown       ErrorKind = "unknown"
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind classifies err by the first matching marker. Timeouts win over the
// stage marker so users are told the step ran too long rather than failed.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrAcquisition):
		return KindAcquisition
	case errors.Is(err, ErrTranscode):
		return KindTranscode
	case errors.Is(err, ErrTranscription):
		return KindTranscription
	case errors.Is(err, ErrTranslation):
		return KindTranslation
	case errors.Is(err, ErrExternalTool):
		return KindExternalTool
	default:
		return KindUnknown
	}
}

// Diagnostic is implemented by errors that carry raw output from an external
// tool for operator inspection.
type Diagnostic interface {
	Diagnostic() string
}

// DiagnosticText returns the tool output carried anywhere in err's chain.
func DiagnosticText(err error) string {
	var diag Diagnostic
	if errors.As(err, &diag) {
		return strings.TrimSpace(diag.Diagnostic())
	}
	return ""
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
