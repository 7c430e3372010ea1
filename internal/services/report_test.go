package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentorlog-backend/internal/models"
)

func newReportFixture(t *testing.T) (*ReportService, *memReportStore, *models.Pairing, *models.SessionReport) {
	t.Helper()
	pairing := &models.Pairing{ID: uuid.New(), MentorID: uuid.New(), MenteeID: uuid.New(), Status: models.PairingAccepted}
	store := &memReportStore{}
	rep := &models.SessionReport{
		SessionID: uuid.New(),
		PairingID: pairing.ID,
		MenteeID:  pairing.MenteeID,
		Summary:   "summary",
		Distractions: []models.DistractionEvent{
			{Activity: "phone usage", Source: SourceVision, DetectedAt: time.Now()},
			{Activity: "snack", Source: SourceManual, DetectedAt: time.Now(), SelfFeedback: &models.SelfFeedback{Comment: "hungry"}},
		},
	}
	require.NoError(t, store.Create(context.Background(), rep))
	return NewReportService(store, newMemPairings(pairing)), store, pairing, rep
}

func TestReportService_MentorFeedback(t *testing.T) {
	svc, _, pairing, rep := newReportFixture(t)
	ctx := context.Background()

	_, err := svc.AddMentorFeedback(ctx, rep.ID, pairing.MenteeID, "nice")
	var forbidden *ForbiddenError
	require.ErrorAs(t, err, &forbidden, "mentee cannot write mentor feedback")

	got, err := svc.AddMentorFeedback(ctx, rep.ID, pairing.MentorID, "Good focus today")
	require.NoError(t, err)
	require.NotNil(t, got.MentorFeedback)
	assert.Equal(t, pairing.MentorID, got.MentorFeedback.AuthorID)

	_, err = svc.AddMentorFeedback(ctx, rep.ID, pairing.MentorID, "again")
	var invalid *InvalidStateError
	assert.ErrorAs(t, err, &invalid)

	_, err = svc.AddMentorFeedback(ctx, uuid.New(), pairing.MentorID, "x")
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestReportService_SelfFeedback(t *testing.T) {
	svc, _, pairing, rep := newReportFixture(t)
	ctx := context.Background()
	var invalid *InvalidStateError

	for _, idx := range []int{-1, 2} {
		_, err := svc.AddSelfFeedback(ctx, rep.ID, idx, pairing.MenteeID, "x")
		assert.ErrorAs(t, err, &invalid, "index %d", idx)
	}

	_, err := svc.AddSelfFeedback(ctx, rep.ID, 1, pairing.MenteeID, "x")
	assert.ErrorAs(t, err, &invalid, "already has feedback")

	_, err = svc.AddSelfFeedback(ctx, rep.ID, 0, pairing.MentorID, "x")
	var forbidden *ForbiddenError
	assert.ErrorAs(t, err, &forbidden)

	got, err := svc.AddSelfFeedback(ctx, rep.ID, 0, pairing.MenteeID, "looked at a notification")
	require.NoError(t, err)
	require.NotNil(t, got.Distractions[0].SelfFeedback)
	assert.Equal(t, "looked at a notification", got.Distractions[0].SelfFeedback.Comment)
	assert.Equal(t, "hungry", got.Distractions[1].SelfFeedback.Comment)
}

func TestReportService_Reads(t *testing.T) {
	svc, _, pairing, rep := newReportFixture(t)
	ctx := context.Background()

	got, err := svc.Get(ctx, rep.ID, pairing.MentorID)
	require.NoError(t, err)
	assert.Equal(t, rep.ID, got.ID)

	list, err := svc.ListByPairing(ctx, pairing.ID, pairing.MenteeID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	var forbidden *ForbiddenError
	_, err = svc.Get(ctx, rep.ID, uuid.New())
	assert.ErrorAs(t, err, &forbidden)
	_, err = svc.ListByPairing(ctx, pairing.ID, uuid.New())
	assert.ErrorAs(t, err, &forbidden)
}
