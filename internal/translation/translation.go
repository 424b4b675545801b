// Package translation defines the machine-translation contract used by the
// subtitle renderer, plus the wrappers every backend is run through.
package translation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"subtitler/internal/services"
)

// Translator renders text from source into target. It may fail per call;
// callers treat failures as non-fatal.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Func adapts a plain function to Translator.
type Func func(ctx context.Context, text, source, target string) (string, error)

// Translate calls f.
func (f Func) Translate(ctx context.Context, text, source, target string) (string, error) {
	return f(ctx, text, source, target)
}

// ErrDisabled is returned by Disabled for every call.
var ErrDisabled = errors.New("translation disabled")

// Disabled is the "none" backend. Every segment falls back to its source text.
type Disabled struct{}

// Translate always fails with ErrDisabled.
func (Disabled) Translate(context.Context, string, string, string) (string, error) {
	return "", ErrDisabled
}

// Bounded applies a per-call timeout and tags failures with
// services.ErrTranslation.
type Bounded struct {
	inner   Translator
	timeout time.Duration
}

// WithTimeout wraps t. A zero timeout applies no bound beyond the caller's context.
func WithTimeout(t Translator, timeout time.Duration) *Bounded {
	return &Bounded{inner: t, timeout: timeout}
}

// Translate runs the wrapped translator.
func (b *Bounded) Translate(ctx context.Context, text, source, target string) (string, error) {
	if b == nil || b.inner == nil {
		return "", services.Wrap(services.ErrTranslation, "translate", "init", "No translator configured", nil)
	}
	callCtx := ctx
	if b.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	out, err := b.inner.Translate(callCtx, text, source, target)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w: translation exceeded %s: %w", services.ErrTimeout, b.timeout, err)
		}
		return "", services.Wrap(services.ErrTranslation, "translate", source+"->"+target, "", err)
	}
	return out, nil
}
