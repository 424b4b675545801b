// Package openai adapts the OpenAI API to the pipeline's recognizer and
// translator contracts using github.com/sashabaranov/go-openai.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"subtitler/internal/language"
	"subtitler/internal/transcription"
)

// Config carries credentials and model selection.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

func newClient(cfg Config) (*goopenai.Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai: api key is required")
	}
	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientCfg.BaseURL = strings.TrimRight(base, "/")
	}
	return goopenai.NewClientWithConfig(clientCfg), nil
}

// Transcriber implements transcription.Recognizer with the audio
// transcription endpoint.
type Transcriber struct {
	client *goopenai.Client
	model  string
}

// NewTranscriber constructs a Transcriber. The model defaults to whisper-1.
func NewTranscriber(cfg Config) (*Transcriber, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = goopenai.Whisper1
	}
	return &Transcriber{client: client, model: model}, nil
}

// Name identifies the backend in logs.
func (t *Transcriber) Name() string { return "openai" }

// Recognize uploads audioPath and returns segment-level timings. The API
// reports the language as an English word ("english"), which the
// transcription service normalizes.
func (t *Transcriber) Recognize(ctx context.Context, audioPath string) (transcription.Transcript, error) {
	resp, err := t.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    t.model,
		FilePath: audioPath,
		Format:   goopenai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return transcription.Transcript{}, fmt.Errorf("openai transcription: %w", err)
	}

	out := transcription.Transcript{Language: resp.Language}
	for _, seg := range resp.Segments {
		out.Segments = append(out.Segments, transcription.Segment{Start: seg.Start, End: seg.End, Text: seg.Text})
	}
	if len(out.Segments) == 0 && strings.TrimSpace(resp.Text) != "" {
		out.Segments = []transcription.Segment{{Start: 0, End: resp.Duration, Text: resp.Text}}
	}
	return out, nil
}

// Translator implements translation.Translator with chat completions.
type Translator struct {
	client *goopenai.Client
	model  string
}

// NewTranslator constructs a Translator. The model defaults to gpt-4o-mini.
func NewTranslator(cfg Config) (*Translator, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = goopenai.GPT4oMini
	}
	return &Translator{client: client, model: model}, nil
}

// Name identifies the backend in logs.
func (t *Translator) Name() string { return "openai" }

const translatePrompt = "You translate subtitle lines. Translate the user's text from %s to %s. " +
	"Reply with the translation only, on a single line, without quotes or commentary."

// Translate returns text rendered in target.
func (t *Translator) Translate(ctx context.Context, text, source, target string) (string, error) {
	resp, err := t.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: t.model,
		Messages: []goopenai.ChatCompletionMessage{
			{
				Role:    goopenai.ChatMessageRoleSystem,
				Content: fmt.Sprintf(translatePrompt, language.DisplayName(source), language.DisplayName(target)),
			},
			{
				Role:    goopenai.ChatMessageRoleUser,
				Content: text,
			},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("openai translate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai translate: no choices returned")
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", errors.New("openai translate: empty completion")
	}
	return out, nil
}

// HealthCheck verifies that the API is reachable and the key is accepted by
// listing the available models.
func HealthCheck(ctx context.Context, cfg Config) error {
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	if _, err := client.ListModels(ctx); err != nil {
		return fmt.Errorf("openai: list models: %w", err)
	}
	return nil
}
