package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnd_PublishesQuestionsWithOrdinal(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	board := f.boards.addBoard(f.pairing.ID)
	s := f.start(t)

	for _, q := range []string{"What is a closure?", "Why use defer?", "How do channels close?"} {
		_, err := f.svc.AddQuestion(ctx, s.ID, q)
		require.NoError(t, err)
	}
	_, err := f.svc.End(ctx, s.ID)
	require.NoError(t, err)

	require.Len(t, f.boards.entries, 3)
	title := f.boards.entries[0].Title
	assert.Equal(t, "[2024.03.04 Session #1]", title)
	for i, e := range f.boards.entries {
		assert.Equal(t, title, e.Title)
		assert.Equal(t, board.ID, e.BoardID)
		assert.Equal(t, f.pairing.MenteeID, e.AuthorID)
		assert.Equal(t, i+1, e.EntryNo)
	}
	assert.Equal(t, "Why use defer?", f.boards.entries[1].Body)
}

func TestEnd_OrdinalCountsPriorReports(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	f.boards.addBoard(f.pairing.ID)

	for i := 0; i < 2; i++ {
		s := f.start(t)
		_, err := f.svc.AddQuestion(ctx, s.ID, "q")
		require.NoError(t, err)
		_, err = f.svc.End(ctx, s.ID)
		require.NoError(t, err)
	}

	require.Len(t, f.boards.entries, 2)
	assert.Contains(t, f.boards.entries[0].Title, "#1")
	assert.Contains(t, f.boards.entries[1].Title, "#2")
}

func TestEnd_ReportContents(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	s := f.start(t)

	_, err := f.svc.AddStudyNote(ctx, s.ID, "first")
	require.NoError(t, err)
	_, err = f.svc.AddStudyNote(ctx, s.ID, "second")
	require.NoError(t, err)
	_, err = f.svc.AddDistraction(ctx, s.ID, "phone usage", SourceManual)
	require.NoError(t, err)
	_, err = f.svc.AddSelfFeedback(ctx, s.ID, "replied to a message")
	require.NoError(t, err)

	_, err = f.svc.End(ctx, s.ID)
	require.NoError(t, err)

	require.Equal(t, []string{"first\nsecond"}, f.summarizer.calls)
	require.Len(t, f.reports.reports, 1)
	rep := f.reports.reports[0]
	assert.Equal(t, "Covered recursion.", rep.Summary)
	assert.Equal(t, s.ID, rep.SessionID)
	assert.Equal(t, f.pairing.MenteeID, rep.MenteeID)
	require.Len(t, rep.Distractions, 1)
	require.NotNil(t, rep.Distractions[0].SelfFeedback)
	assert.Equal(t, "replied to a message", rep.Distractions[0].SelfFeedback.Comment)
	assert.Empty(t, f.boards.entries, "no questions recorded")
}

func TestEnd_SummarizerFailureUsesFallback(t *testing.T) {
	f := newSessionFixture(t)
	f.summarizer.err = errors.New("timeout")
	s := f.start(t)

	_, err := f.svc.End(context.Background(), s.ID)
	require.NoError(t, err)
	require.Len(t, f.reports.reports, 1)
	assert.Equal(t, summaryFallback, f.reports.reports[0].Summary)
}

func TestEnd_BoardFailureContinues(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	f.boards.addBoard(f.pairing.ID)
	f.boards.failOn["broken"] = true
	s := f.start(t)

	for _, q := range []string{"one", "broken", "three"} {
		_, err := f.svc.AddQuestion(ctx, s.ID, q)
		require.NoError(t, err)
	}
	_, err := f.svc.End(ctx, s.ID)
	require.NoError(t, err)

	require.Len(t, f.boards.entries, 2)
	assert.Equal(t, "one", f.boards.entries[0].Body)
	assert.Equal(t, "three", f.boards.entries[1].Body)
}

func TestEnd_BoardFailureWithoutRetryQueueTriesOnce(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	f.boards.addBoard(f.pairing.ID)
	f.boards.failOn["broken"] = true
	require.Nil(t, f.svc.pipeline.retries)
	s := f.start(t)

	for _, q := range []string{"one", "broken"} {
		_, err := f.svc.AddQuestion(ctx, s.ID, q)
		require.NoError(t, err)
	}
	_, err := f.svc.End(ctx, s.ID)
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"one": 1, "broken": 1}, f.boards.attempts)
	require.Len(t, f.boards.entries, 1)
}

func TestEnd_BoardFailureQueuesRetry(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	board := f.boards.addBoard(f.pairing.ID)
	f.boards.failOn["broken"] = true
	queue := &recordingRetryQueue{}
	f.svc.pipeline.WithRetryQueue(queue)
	s := f.start(t)

	for _, q := range []string{"one", "broken"} {
		_, err := f.svc.AddQuestion(ctx, s.ID, q)
		require.NoError(t, err)
	}
	_, err := f.svc.End(ctx, s.ID)
	require.NoError(t, err)

	require.Len(t, queue.jobs, 1)
	job := queue.jobs[0]
	assert.Equal(t, "broken", job.Body)
	assert.Equal(t, board.ID, job.BoardID)
	assert.Equal(t, s.ID, job.SessionID)
	assert.Equal(t, f.boards.entries[0].Title, job.Title)
}

func TestEnd_NoBoardSkipsPublication(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	s := f.start(t)
	_, err := f.svc.AddQuestion(ctx, s.ID, "anyone?")
	require.NoError(t, err)

	_, err = f.svc.End(ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, f.boards.entries)
	assert.Len(t, f.reports.reports, 1)
}

func TestEnd_ReportWriteFailure(t *testing.T) {
	f := newSessionFixture(t)
	f.reports.createErr = errors.New("disk full")
	s := f.start(t)

	_, err := f.svc.End(context.Background(), s.ID)
	require.Error(t, err)

	stored, err := f.store.GetByID(context.Background(), s.ID)
	require.NoError(t, err)
	assert.True(t, stored.Status.Terminal(), "session stays ended")
}

func TestEntryTitle_UsesReportZone(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)
	started := time.Date(2024, 3, 4, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "[2024.03.05 Session #3]", EntryTitle(started, 3, seoul))
}
