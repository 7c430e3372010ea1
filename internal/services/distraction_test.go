package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentorlog-backend/internal/models"
)

func TestAnalyzeFrame_VisionDisabled(t *testing.T) {
	f := newSessionFixture(t)
	s := f.start(t)
	vision := &stubVision{enabled: false, verdict: &VisionVerdict{Phone: true}}
	tracker := NewDistractionTracker(f.svc, vision)

	got, detected, err := tracker.AnalyzeFrame(context.Background(), s.ID, []byte("jpeg"), "")
	require.NoError(t, err)
	assert.False(t, detected)
	assert.Equal(t, models.SessionActive, got.Status)
	assert.Empty(t, got.Distractions)
	assert.Zero(t, vision.calls)
	assert.Zero(t, f.store.updates)
}

func TestAnalyzeFrame_ClientWithoutBaseURLIsDisabled(t *testing.T) {
	f := newSessionFixture(t)
	s := f.start(t)
	tracker := NewDistractionTracker(f.svc, NewVisionClient(true, "  ", 0))

	got, detected, err := tracker.AnalyzeFrame(context.Background(), s.ID, []byte("jpeg"), "frame.jpg")
	require.NoError(t, err)
	assert.False(t, detected)
	assert.Empty(t, got.Distractions)
}

func TestAnalyzeFrame(t *testing.T) {
	tests := []struct {
		name     string
		verdict  *VisionVerdict
		err      error
		detected bool
		label    string
	}{
		{name: "phone", verdict: &VisionVerdict{Phone: true}, detected: true, label: "phone usage"},
		{name: "drowsy", verdict: &VisionVerdict{Drowsy: true}, detected: true, label: "drowsiness"},
		{name: "left seat", verdict: &VisionVerdict{LeftSeat: true}, detected: true, label: "left seat"},
		{name: "activity wins", verdict: &VisionVerdict{Phone: true, Activity: "gaming"}, detected: true, label: "gaming"},
		{name: "blank activity ignored", verdict: &VisionVerdict{Activity: "  "}},
		{name: "negative", verdict: &VisionVerdict{}},
		{name: "absent", verdict: nil},
		{name: "error", err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSessionFixture(t)
			s := f.start(t)
			tracker := NewDistractionTracker(f.svc, &stubVision{enabled: true, verdict: tt.verdict, err: tt.err})

			got, detected, err := tracker.AnalyzeFrame(context.Background(), s.ID, []byte("jpeg"), "f.jpg")
			require.NoError(t, err)
			assert.Equal(t, tt.detected, detected)
			if !tt.detected {
				assert.Equal(t, models.SessionActive, got.Status)
				assert.Empty(t, got.Distractions)
				return
			}
			assert.Equal(t, models.SessionPaused, got.Status)
			require.Len(t, got.Distractions, 1)
			assert.Equal(t, tt.label, got.Distractions[0].Activity)
			assert.Equal(t, SourceVision, got.Distractions[0].Source)
		})
	}
}

func TestAnalyzeFrame_UnknownSession(t *testing.T) {
	f := newSessionFixture(t)
	tracker := NewDistractionTracker(f.svc, &stubVision{enabled: true})

	_, _, err := tracker.AnalyzeFrame(context.Background(), uuid.New(), nil, "")
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestReport_Direct(t *testing.T) {
	f := newSessionFixture(t)
	s := f.start(t)
	tracker := NewDistractionTracker(f.svc, nil)

	got, err := tracker.Report(context.Background(), s.ID, "snack", SourceManual)
	require.NoError(t, err)
	assert.Equal(t, models.SessionPaused, got.Status)
	assert.Equal(t, SourceManual, got.Distractions[0].Source)
}
