package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const DefaultEndpoint = "http://localhost:8000/api/text-classification"

// ClassifyRequest is the body posted to the inference endpoint
type ClassifyRequest struct {
	Texts string `json:"texts"`
}

// HTTPClassifier posts text to a fixed inference endpoint
type HTTPClassifier struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewHTTPClassifier(endpoint string, timeout time.Duration, logger *zap.Logger) *HTTPClassifier {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &HTTPClassifier{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (c *HTTPClassifier) Name() string { return "http" }

// Classify sends a single text and returns the raw JSON body of a 2xx response.
func (c *HTTPClassifier) Classify(ctx context.Context, text string) (json.RawMessage, error) {
	body, err := json.Marshal(ClassifyRequest{Texts: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err, Timeout: isTimeout(err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("failed to read response: %w", err), Timeout: isTimeout(err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("Classification service returned error status",
			zap.Int("status", resp.StatusCode),
			zap.String("endpoint", c.endpoint))
		return nil, &ServerError{StatusCode: resp.StatusCode, Message: bodyMessage(respBody)}
	}

	var decoded any
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, &MalformedResponseError{Err: err}
	}

	return json.RawMessage(respBody), nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
