package services

import "mentorlog-backend/internal/models"

// TotalMinutes is the wall time between start and end. It is zero while the
// session is still running and never negative.
func TotalMinutes(s *models.StudySession) float64 {
	if s.EndedAt == nil || s.StartedAt.IsZero() {
		return 0
	}
	d := s.EndedAt.Sub(s.StartedAt).Minutes()
	if d < 0 {
		return 0
	}
	return d
}

// DistractionMinutes sums, over events that carry self feedback, the time
// from detection to feedback. Events without feedback are unresolved and
// contribute nothing.
func DistractionMinutes(s *models.StudySession) float64 {
	var sum float64
	for _, d := range s.Distractions {
		if d.SelfFeedback == nil || d.DetectedAt.IsZero() || d.SelfFeedback.CreatedAt.IsZero() {
			continue
		}
		if gap := d.SelfFeedback.CreatedAt.Sub(d.DetectedAt).Minutes(); gap > 0 {
			sum += gap
		}
	}
	return sum
}

// NetMinutes is the focused study time of a session, clamped at zero.
func NetMinutes(s *models.StudySession) float64 {
	total := TotalMinutes(s)
	if total <= 0 {
		return 0
	}
	net := total - DistractionMinutes(s)
	if net < 0 {
		return 0
	}
	return net
}
