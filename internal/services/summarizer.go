package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

const (
	summaryNoNotes  = "There are no study notes to summarize."
	summaryDisabled = "The AI summary service is disabled."
)

var errEmptySummary = errors.New("summarizer returned no summary")

// HTTPSummarizer calls a remote POST /summarize endpoint.
type HTTPSummarizer struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewHTTPSummarizer(baseURL, apiKey string, timeout time.Duration) *HTTPSummarizer {
	return &HTTPSummarizer{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return summaryNoNotes, nil
	}
	if s.baseURL == "" {
		return summaryDisabled, nil
	}

	var resp map[string]any
	body := map[string]string{"text": text, "textToSummarize": text}
	if err := postJSON(ctx, s.httpClient, s.baseURL+"/summarize", s.apiKey, body, &resp); err != nil {
		return "", err
	}
	for _, key := range []string{"summary", "aisummary"} {
		if v, ok := stringField(resp, key); ok && strings.TrimSpace(v) != "" {
			return v, nil
		}
	}
	return "", errEmptySummary
}
