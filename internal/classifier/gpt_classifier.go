package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// DefaultLabels are the Ekman emotions plus neutral
var DefaultLabels = []string{"anger", "disgust", "fear", "joy", "neutral", "sadness", "surprise"}

// GPTConfig configures the chat completion backend
type GPTConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Labels      []string
	Timeout     time.Duration
}

// GPTClassifier asks a chat model for per-label scores in the same
// shape the inference endpoint returns.
type GPTClassifier struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float64
	labels      []string
	logger      *zap.Logger
}

func NewGPTClassifier(cfg GPTConfig, logger *zap.Logger) *GPTClassifier {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	labels := cfg.Labels
	if len(labels) == 0 {
		labels = DefaultLabels
	}

	return &GPTClassifier{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		labels:      labels,
		logger:      logger,
	}
}

func (c *GPTClassifier) Name() string { return "openai" }

func (c *GPTClassifier) Classify(ctx context.Context, text string) (json.RawMessage, error) {
	prompt := fmt.Sprintf(`Identify the emotion expressed by the author of the following text.
Score every one of these labels with a probability between 0 and 1, the scores summing to 1:
%s

Return only a JSON array with this structure, no other text:
[{"label": "label1", "score": 0.5}, {"label": "label2", "score": 0.3}, ...]

Text: %s`, strings.Join(c.labels, ", "), text)

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			MaxTokens:   c.maxTokens,
			Temperature: float32(c.temperature),
		},
	)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			c.logger.Error("Chat completion rejected",
				zap.Int("status", apiErr.HTTPStatusCode),
				zap.String("model", c.model))
			return nil, &ServerError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return nil, &ServerError{StatusCode: reqErr.HTTPStatusCode}
		}
		return nil, &TransportError{Err: err, Timeout: isTimeout(err)}
	}

	if len(resp.Choices) == 0 {
		return nil, &MalformedResponseError{Err: errors.New("completion has no choices")}
	}

	content := stripFences(resp.Choices[0].Message.Content)
	var decoded any
	if err := json.Unmarshal([]byte(content), &decoded); err != nil {
		c.logger.Error("Failed to parse GPT response",
			zap.Error(err),
			zap.String("response", content))
		return nil, &MalformedResponseError{Err: err}
	}

	return json.RawMessage(content), nil
}

// stripFences removes a surrounding markdown code block
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```")
	if nl := strings.IndexByte(content, '\n'); nl >= 0 {
		content = content[nl+1:]
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}
