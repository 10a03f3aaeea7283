package ocr

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/pyhub-apps/pdfmessages-golang/pkg/retry"
)

// GeminiBaseURL is Google's OpenAI-compatible endpoint
const GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// ErrEmptyResponse is returned when the model sends no choices
var ErrEmptyResponse = errors.New("model returned no choices")

// VisionConfig configures a VisionRecognizer
type VisionConfig struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
}

// VisionRecognizer sends page images to a chat completion endpoint
type VisionRecognizer struct {
	client    *openai.Client
	model     string
	maxTokens int
	logger    *slog.Logger
}

// NewVisionRecognizer creates a recognizer for any OpenAI-compatible API
func NewVisionRecognizer(cfg VisionConfig) (*VisionRecognizer, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("vision recognizer: API key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("vision recognizer: model is required")
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &VisionRecognizer{
		client:    openai.NewClientWithConfig(config),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		logger:    slog.Default().With("component", "vision-recognizer"),
	}, nil
}

// Recognize transcribes one page. Returned errors carry a retry class.
func (v *VisionRecognizer) Recognize(ctx context.Context, img PageImage) (string, error) {
	v.logger.Debug("sending page", "page", img.Page, "bytes", len(img.JPEG), "model", v.model)

	resp, err := v.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     v.model,
		MaxTokens: v.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: img.Prompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(img.JPEG),
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("page %d: %w", img.Page, ClassifyAPIError(err))
	}
	if len(resp.Choices) == 0 {
		return "", retry.Mark(fmt.Errorf("page %d: %w", img.Page, ErrEmptyResponse), retry.Transient)
	}

	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonContentFilter {
		v.logger.Warn("page blocked", "page", img.Page, "reason", string(choice.FinishReason))
	}
	return strings.TrimSpace(choice.Message.Content), nil
}

// ListModels returns the model IDs the endpoint offers, sorted
func (v *VisionRecognizer) ListModels(ctx context.Context) ([]string, error) {
	list, err := v.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", ClassifyAPIError(err))
	}
	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		ids = append(ids, m.ID)
	}
	sort.Strings(ids)
	return ids, nil
}

// ClassifyAPIError marks an error from go-openai with its retry class based
// on the HTTP status. Errors without a status are left Transient.
func ClassifyAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retry.Mark(err, classForStatus(apiErr.HTTPStatusCode))
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retry.Mark(err, classForStatus(reqErr.HTTPStatusCode))
	}
	return err
}

func classForStatus(code int) retry.Class {
	switch {
	case code == http.StatusTooManyRequests:
		return retry.RateLimited
	case code == http.StatusRequestTimeout, code >= 500:
		return retry.Transient
	case code >= 400:
		return retry.Fatal
	default:
		return retry.Transient
	}
}
