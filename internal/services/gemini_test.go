package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newOfflineGemini builds a summarizer without a client; calls must fail
// before reaching the model.
func newOfflineGemini(slots int, timeout time.Duration) *GeminiSummarizer {
	rateChan := make(chan struct{}, 1)
	for i := 0; i < slots; i++ {
		rateChan <- struct{}{}
	}
	return &GeminiSummarizer{rateChan: rateChan, summaryTimeout: timeout, weeklyTimeout: timeout}
}

func TestGemini_TimeoutBoundsRateWait(t *testing.T) {
	g := newOfflineGemini(0, 20*time.Millisecond)

	start := time.Now()
	_, err := g.Summarize(context.Background(), "closures capture variables")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)

	_, err = g.SummarizeWeek(context.Background(), WeeklyDigest{TotalHours: 1})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGemini_ExpiredContextKeepsRateSlot(t *testing.T) {
	g := newOfflineGemini(1, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Summarize(ctx, "notes")
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, g.rateChan, 1)
}

func TestEnd_ExpiredGeminiCallUsesFallback(t *testing.T) {
	f := newSessionFixture(t)
	f.svc.pipeline.summarizer = newOfflineGemini(1, 30*time.Second)
	s := f.start(t)
	_, err := f.svc.AddStudyNote(context.Background(), s.ID, "defer runs LIFO")
	require.NoError(t, err)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err = f.svc.End(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, f.reports.reports, 1)
	assert.Equal(t, summaryFallback, f.reports.reports[0].Summary)
}
