package services

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// NarrativeClient calls a remote POST /analyze-weekly endpoint.
type NarrativeClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewNarrativeClient(baseURL, apiKey string, timeout time.Duration) *NarrativeClient {
	return &NarrativeClient{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type narrativeRequest struct {
	StudyHours map[string]float64 `json:"study_hours"`
	TotalHours float64            `json:"total_hours"`
	FocusMe    int                `json:"focus_me"`
	FocusAvg   int                `json:"focus_avg"`
}

func (c *NarrativeClient) SummarizeWeek(ctx context.Context, d WeeklyDigest) (string, error) {
	var resp map[string]any
	req := narrativeRequest{StudyHours: d.StudyHours, TotalHours: d.TotalHours, FocusMe: d.FocusMe, FocusAvg: d.FocusAvg}
	if err := postJSON(ctx, c.httpClient, c.baseURL+"/analyze-weekly", c.apiKey, req, &resp); err != nil {
		return "", err
	}
	summary := extractNarrative(resp)
	if summary == "" {
		return "", errEmptySummary
	}
	return summary, nil
}

// extractNarrative accepts a top level aisummary or summary, or the same
// fields (ai_summary included) nested under data.
func extractNarrative(resp map[string]any) string {
	for _, key := range []string{"aisummary", "summary"} {
		if v, ok := stringField(resp, key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	data, ok := resp["data"].(map[string]any)
	if !ok {
		return ""
	}
	for _, key := range []string{"ai_summary", "aisummary", "summary"} {
		if v, ok := stringField(data, key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
