// Package gemini implements the digest-generation client backed by
// Google's Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"google.golang.org/genai"

	"github.com/askhat/neighborbot/internal/config"
	"github.com/askhat/neighborbot/internal/database"
)

// ErrDisabled is returned by a client constructed without an API key.
// Callers fall back to the deterministic digest.
var ErrDisabled = errors.New("gemini client is disabled")

// maxTranscriptChars bounds the transcript sent to the model; older
// messages are dropped from the front when the day runs long.
const maxTranscriptChars = 6000

// Client generates a narrative digest from a day of chat messages.
type Client interface {
	GenerateDigest(ctx context.Context, messages []database.Message) (string, error)
}

type sdkClient struct {
	genaiClient   *genai.Client
	log           *slog.Logger
	contentConfig *genai.GenerateContentConfig
	modelName     string
	timeout       time.Duration
	maxRetries    int
	retryDelay    time.Duration
}

type disabledClient struct{}

func (disabledClient) GenerateDigest(context.Context, []database.Message) (string, error) {
	return "", ErrDisabled
}

// NewClient creates a Gemini digest client. Without an API key it
// returns a disabled client whose calls fail with ErrDisabled, leaving
// the fallback path to the caller.
func NewClient(ctx context.Context, cfg config.GeminiConfig, log *slog.Logger) (Client, error) {
	logger := log.With("component", "gemini_client")

	if cfg.APIKey == "" {
		logger.Warn("No Gemini API key configured, digests will use the fallback summary")
		return disabledClient{}, nil
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	baseCfg := &genai.GenerateContentConfig{
		Temperature: &cfg.Temperature,
	}

	logger.Info("Gemini client initialized", "model", cfg.Model)
	return &sdkClient{
		genaiClient:   gi,
		log:           logger,
		contentConfig: baseCfg,
		modelName:     cfg.Model,
		timeout:       cfg.Timeout,
		maxRetries:    cfg.MaxRetries,
		retryDelay:    cfg.RetryDelay,
	}, nil
}

// GenerateDigest builds a transcript from the day's messages and asks
// the model for a digest. The call runs under the configured hard
// timeout regardless of the caller's context.
func (c *sdkClient) GenerateDigest(ctx context.Context, messages []database.Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("no messages to summarize")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	transcript := buildTranscript(messages)
	prompt := fmt.Sprintf(DigestPromptTemplate, len(messages), transcript)
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	resp, err := c.generateContentWithRetries(ctx, contents)
	if err != nil {
		c.log.ErrorContext(ctx, "Gemini digest generation failed", "error", err)
		return "", fmt.Errorf("gemini digest generation failed: %w", err)
	}

	return c.extractText(ctx, resp)
}

func (c *sdkClient) generateContentWithRetries(ctx context.Context, contents []*genai.Content) (*genai.GenerateContentResponse, error) {
	var resp *genai.GenerateContentResponse
	var err error

	for i := 0; i <= c.maxRetries; i++ {
		resp, err = c.genaiClient.Models.GenerateContent(ctx, c.modelName, contents, c.contentConfig)
		if err == nil {
			return resp, nil
		}

		var apiErr *genai.APIError
		if errors.As(err, &apiErr) && (apiErr.Code == 500 || apiErr.Code == 503) {
			if i < c.maxRetries {
				c.log.InfoContext(ctx, "Retrying Gemini API call", "attempt", i+1, "code", apiErr.Code, "delay", c.retryDelay)
				select {
				case <-time.After(c.retryDelay):
					continue
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
			return nil, fmt.Errorf("gemini API call failed after %d retries (code %d): %w", c.maxRetries, apiErr.Code, err)
		}

		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}

	return nil, err
}

func (c *sdkClient) extractText(ctx context.Context, resp *genai.GenerateContentResponse) (string, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reasonMsg := fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reasonMsg = resp.PromptFeedback.BlockReasonMessage
		}
		c.log.ErrorContext(ctx, "Gemini request blocked", "reason", reasonMsg)
		return "", fmt.Errorf("gemini request blocked: %s", reasonMsg)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini response contained no text")
	}

	return text, nil
}

// buildTranscript renders messages as "name: text" lines, keeping only
// the trailing maxTranscriptChars characters.
func buildTranscript(messages []database.Message) string {
	var sb strings.Builder
	for i := range messages {
		m := &messages[i]
		if m.Text == "" {
			continue
		}
		sb.WriteString(m.DisplayName())
		sb.WriteString(": ")
		sb.WriteString(m.Text)
		sb.WriteString("\n")
	}

	transcript := sb.String()
	if len(transcript) > maxTranscriptChars {
		cut := len(transcript) - maxTranscriptChars
		// Never cut inside a multi-byte rune.
		for cut < len(transcript) && !utf8.RuneStart(transcript[cut]) {
			cut++
		}
		transcript = "...\n" + transcript[cut:]
	}
	return transcript
}
