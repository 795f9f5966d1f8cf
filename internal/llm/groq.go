package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/medintake/form-extractor/internal/common"
	"github.com/medintake/form-extractor/internal/schema"
)

// GroqExtractor implements Extractor against Groq's OpenAI-compatible
// chat/completions endpoint. The model is treated as a pure, stateless
// function: one call per pipeline run, no conversation state kept.
type GroqExtractor struct {
	cfg    common.LLMConfig
	client *openai.Client
	logger *slog.Logger
}

func NewGroqExtractor(cfg common.LLMConfig, logger *slog.Logger) *GroqExtractor {
	if cfg.Model == "" {
		cfg.Model = "llama-3.1-70b-versatile"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 500 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	occ := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		occ.BaseURL = cfg.BaseURL
	}
	occ.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &GroqExtractor{cfg: cfg, client: openai.NewClientWithConfig(occ), logger: logger}
}

func (g *GroqExtractor) Extract(ctx context.Context, req ExtractRequest, def *schema.Definition) (schema.CandidateRecord, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	g.logger.Info("llm.extract.start",
		"req_id", rid,
		"model", g.cfg.Model,
		"text_len", len(req.Text),
	)

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: BuildSystemPrompt(def)},
		{Role: openai.ChatMessageRoleUser, Content: BuildUserPrompt(req)},
	}

	reply, attempts, err := g.completeWithRetry(ctx, rid, messages)
	if err != nil {
		return nil, nil, &common.ExtractionError{Reason: "model call failed", Attempts: attempts, Cause: err}
	}

	cand, perr := DecodeCandidate(reply)
	if perr != nil {
		// one stricter re-issue before giving up on an unparsable reply
		g.logger.Warn("llm.extract.unparsable_reply", "req_id", rid, "error", perr)
		messages = append(messages,
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: reply},
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: StrictReminder},
		)
		var retryAttempts int
		reply, retryAttempts, err = g.completeWithRetry(ctx, rid, messages)
		attempts += retryAttempts
		if err != nil {
			return nil, nil, &common.ExtractionError{Reason: "model call failed on re-issue", Attempts: attempts, Cause: err}
		}
		cand, perr = DecodeCandidate(reply)
		if perr != nil {
			g.logger.Error("llm.extract.unparsable_after_reissue", "req_id", rid, "error", perr)
			return nil, []byte(reply), &common.ExtractionError{Reason: "unparsable model reply", Attempts: attempts, Cause: perr}
		}
	}

	g.logger.Info("llm.extract.ok",
		"req_id", rid,
		"attempts", attempts,
		"fields", len(cand),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return cand, []byte(reply), nil
}

// completeWithRetry performs the chat call with bounded, backing-off retries
// for transient failures. Non-transient failures (auth, malformed request)
// surface immediately.
func (g *GroqExtractor) completeWithRetry(ctx context.Context, rid string, messages []openai.ChatCompletionMessage) (string, int, error) {
	var lastErr error
	for attempt := 1; attempt <= g.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			backoff := g.cfg.BackoffBase << (attempt - 2)
			select {
			case <-ctx.Done():
				return "", attempt - 1, ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       g.cfg.Model,
			Messages:    messages,
			Temperature: g.cfg.Temperature,
			MaxTokens:   g.cfg.MaxTokens,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
		if err == nil {
			if len(resp.Choices) == 0 {
				return "", attempt, errors.New("no choices in model reply")
			}
			return resp.Choices[0].Message.Content, attempt, nil
		}
		if !isTransient(ctx, err) {
			g.logger.Error("llm.chat.permanent_error", "req_id", rid, "attempt", attempt, "error", err)
			return "", attempt, err
		}
		lastErr = err
		g.logger.Warn("llm.chat.transient_error", "req_id", rid, "attempt", attempt, "error", err)
	}
	return "", g.cfg.MaxAttempts, fmt.Errorf("attempts exhausted: %w", lastErr)
}

// isTransient classifies an error as retryable: rate limits, server-side
// failures, and network/timeout errors. A cancelled caller is never retried.
func isTransient(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
