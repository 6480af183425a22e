package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPClassifierConfig configures the remote classification endpoint.
type HTTPClassifierConfig struct {
	URL        string
	HTTPClient *http.Client
}

// httpClassifier calls a JSON-over-HTTP classification service. The service
// receives the assembled prompt and answers with a RawClassification; any
// transport or decode failure surfaces as an error and is absorbed upstream
// as a low-confidence roleplay classification.
type httpClassifier struct {
	cfg HTTPClassifierConfig
}

// NewHTTPClassifier builds a TextClassifier over a remote endpoint.
func NewHTTPClassifier(cfg HTTPClassifierConfig) (TextClassifier, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("classifier url is required")
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &httpClassifier{cfg: cfg}, nil
}

type classifyRequest struct {
	Prompt string `json:"prompt"`
}

func (c *httpClassifier) ClassifyText(ctx context.Context, prompt string) (RawClassification, error) {
	body, err := json.Marshal(classifyRequest{Prompt: prompt})
	if err != nil {
		return RawClassification{}, fmt.Errorf("encode classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return RawClassification{}, fmt.Errorf("build classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return RawClassification{}, fmt.Errorf("call classifier: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return RawClassification{}, fmt.Errorf("classifier status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var raw RawClassification
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return RawClassification{}, fmt.Errorf("decode classification: %w", err)
	}
	return raw, nil
}
