package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// GeminiSummarizer produces session and weekly summaries with Gemini. It is
// used when no dedicated summarization service is configured.
type GeminiSummarizer struct {
	client   *genai.Client
	model    *genai.GenerativeModel
	rateChan chan struct{} // Token bucket

	// Per-call deadlines, covering the wait for a rate slot.
	summaryTimeout time.Duration
	weeklyTimeout  time.Duration
}

func NewGeminiSummarizer(ctx context.Context, apiKey, modelName string, concurrentReqs int, summaryTimeout, weeklyTimeout time.Duration) (*GeminiSummarizer, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.3)
	model.SetTopP(0.95)

	if concurrentReqs < 1 {
		concurrentReqs = 1
	}
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &GeminiSummarizer{
		client:         client,
		model:          model,
		rateChan:       rateChan,
		summaryTimeout: summaryTimeout,
		weeklyTimeout:  weeklyTimeout,
	}, nil
}

func (g *GeminiSummarizer) Close() {
	g.client.Close()
}

// acquireRate blocks until a rate slot is available
func (g *GeminiSummarizer) acquireRate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-g.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Minute):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (g *GeminiSummarizer) releaseRate() {
	g.rateChan <- struct{}{}
}

func (g *GeminiSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return summaryNoNotes, nil
	}
	return g.generate(ctx, buildSessionPrompt(text), g.summaryTimeout)
}

func (g *GeminiSummarizer) SummarizeWeek(ctx context.Context, d WeeklyDigest) (string, error) {
	return g.generate(ctx, buildWeeklyPrompt(d), g.weeklyTimeout)
}

func (g *GeminiSummarizer) generate(ctx context.Context, prompt string, timeout time.Duration) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := g.acquireRate(ctx); err != nil {
		return "", err
	}
	defer g.releaseRate()

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	for i, cand := range resp.Candidates {
		if cand.FinishReason != genai.FinishReasonStop {
			log.Warn().Int("candidate", i).Str("finish_reason", cand.FinishReason.String()).Msg("Gemini stopped early")
		}
	}

	text := strings.TrimSpace(extractText(resp))
	if text == "" {
		return "", errEmptySummary
	}
	return text, nil
}

func buildSessionPrompt(notes string) string {
	return "Summarize the following study notes from one mentoring session in three to five sentences. " +
		"Focus on what was learned and what remains unclear. Return plain text only.\n\nNotes:\n" + notes
}

func buildWeeklyPrompt(d WeeklyDigest) string {
	days := make([]string, 0, len(d.StudyHours))
	for day := range d.StudyHours {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return weekdayIndex(days[i]) < weekdayIndex(days[j]) })

	var b strings.Builder
	b.WriteString("Write a short encouraging weekly study review for a mentee. Return plain text only.\n\n")
	for _, day := range days {
		fmt.Fprintf(&b, "%s: %.1f hours\n", day, d.StudyHours[day])
	}
	fmt.Fprintf(&b, "Total: %.1f hours\nFocus score: %d (reference %d)\n", d.TotalHours, d.FocusMe, d.FocusAvg)
	return b.String()
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
