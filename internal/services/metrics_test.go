package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"mentorlog-backend/internal/models"
)

func at(hh, mm int) time.Time {
	return time.Date(2024, 3, 4, hh, mm, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

func TestSessionMetrics_Scenario(t *testing.T) {
	s := &models.StudySession{
		StartedAt: at(10, 0),
		EndedAt:   ptr(at(11, 0)),
		Status:    models.SessionEnded,
		Distractions: []models.DistractionEvent{{
			Activity:     "phone usage",
			DetectedAt:   at(10, 10),
			SelfFeedback: &models.SelfFeedback{Comment: "checked a message", CreatedAt: at(10, 12)},
		}},
	}

	assert.InDelta(t, 60, TotalMinutes(s), 1e-9)
	assert.InDelta(t, 2, DistractionMinutes(s), 1e-9)
	assert.InDelta(t, 58, NetMinutes(s), 1e-9)
}

func TestSessionMetrics(t *testing.T) {
	tests := []struct {
		name        string
		session     *models.StudySession
		total, dist float64
		net         float64
	}{
		{
			name:    "still running",
			session: &models.StudySession{StartedAt: at(10, 0)},
		},
		{
			name:    "end before start",
			session: &models.StudySession{StartedAt: at(11, 0), EndedAt: ptr(at(10, 0))},
		},
		{
			name: "unresolved distraction counts nothing",
			session: &models.StudySession{
				StartedAt:    at(10, 0),
				EndedAt:      ptr(at(10, 30)),
				Distractions: []models.DistractionEvent{{DetectedAt: at(10, 5)}},
			},
			total: 30, net: 30,
		},
		{
			name: "feedback before detection counts nothing",
			session: &models.StudySession{
				StartedAt: at(10, 0),
				EndedAt:   ptr(at(10, 30)),
				Distractions: []models.DistractionEvent{{
					DetectedAt:   at(10, 20),
					SelfFeedback: &models.SelfFeedback{CreatedAt: at(10, 10)},
				}},
			},
			total: 30, net: 30,
		},
		{
			name: "net clamps at zero",
			session: &models.StudySession{
				StartedAt: at(10, 0),
				EndedAt:   ptr(at(10, 10)),
				Distractions: []models.DistractionEvent{{
					DetectedAt:   at(10, 5),
					SelfFeedback: &models.SelfFeedback{CreatedAt: at(10, 50)},
				}},
			},
			total: 10, dist: 45, net: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total := TotalMinutes(tt.session)
			net := NetMinutes(tt.session)
			assert.InDelta(t, tt.total, total, 1e-9)
			assert.InDelta(t, tt.dist, DistractionMinutes(tt.session), 1e-9)
			assert.InDelta(t, tt.net, net, 1e-9)
			assert.GreaterOrEqual(t, net, 0.0)
			assert.LessOrEqual(t, net, total)
		})
	}
}
