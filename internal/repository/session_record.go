package repository

import (
	"encoding/json"
	"fmt"

	"mentorlog-backend/internal/models"
)

// sessionRecordVersion is bumped whenever the layout of the JSONB record
// column changes. Readers must handle every version still present in the
// table.
const sessionRecordVersion = 1

// sessionRecord is the on-disk shape of a session's ordered collections.
// Scalar fields live in their own columns so they can be indexed.
type sessionRecord struct {
	SchemaVersion int                 `json:"v"`
	StudyNotes    []noteRecord        `json:"notes"`
	Distractions  []distractionRecord `json:"distractions"`
	Questions     []questionRecord    `json:"questions"`
}

type noteRecord struct {
	Content   string `json:"content"`
	CreatedAt int64  `json:"created_at_ms"`
}

type questionRecord struct {
	Text      string `json:"text"`
	CreatedAt int64  `json:"created_at_ms"`
}

type distractionRecord struct {
	Activity   string          `json:"activity"`
	Source     string          `json:"source"`
	DetectedAt int64           `json:"detected_at_ms"`
	Feedback   *feedbackRecord `json:"feedback,omitempty"`
}

type feedbackRecord struct {
	Comment   string `json:"comment"`
	CreatedAt int64  `json:"created_at_ms"`
}

func encodeSessionRecord(s *models.StudySession) ([]byte, error) {
	rec := sessionRecord{
		SchemaVersion: sessionRecordVersion,
		StudyNotes:    make([]noteRecord, 0, len(s.StudyNotes)),
		Distractions:  encodeDistractions(s.Distractions),
		Questions:     make([]questionRecord, 0, len(s.Questions)),
	}
	for _, n := range s.StudyNotes {
		rec.StudyNotes = append(rec.StudyNotes, noteRecord{Content: n.Content, CreatedAt: n.CreatedAt.UnixMilli()})
	}
	for _, q := range s.Questions {
		rec.Questions = append(rec.Questions, questionRecord{Text: q.Text, CreatedAt: q.CreatedAt.UnixMilli()})
	}
	return json.Marshal(rec)
}

func decodeSessionRecord(raw []byte, s *models.StudySession) error {
	var rec sessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return fmt.Errorf("decode session record: %w", err)
	}
	if rec.SchemaVersion != sessionRecordVersion {
		return fmt.Errorf("unsupported session record version %d", rec.SchemaVersion)
	}

	s.StudyNotes = make([]models.StudyNote, 0, len(rec.StudyNotes))
	for _, n := range rec.StudyNotes {
		s.StudyNotes = append(s.StudyNotes, models.StudyNote{Content: n.Content, CreatedAt: fromMillis(n.CreatedAt)})
	}
	s.Questions = make([]models.Question, 0, len(rec.Questions))
	for _, q := range rec.Questions {
		s.Questions = append(s.Questions, models.Question{Text: q.Text, CreatedAt: fromMillis(q.CreatedAt)})
	}
	s.Distractions = decodeDistractions(rec.Distractions)
	return nil
}

func encodeDistractions(events []models.DistractionEvent) []distractionRecord {
	out := make([]distractionRecord, 0, len(events))
	for _, d := range events {
		r := distractionRecord{Activity: d.Activity, Source: d.Source, DetectedAt: d.DetectedAt.UnixMilli()}
		if d.SelfFeedback != nil {
			r.Feedback = &feedbackRecord{Comment: d.SelfFeedback.Comment, CreatedAt: d.SelfFeedback.CreatedAt.UnixMilli()}
		}
		out = append(out, r)
	}
	return out
}

func decodeDistractions(records []distractionRecord) []models.DistractionEvent {
	out := make([]models.DistractionEvent, 0, len(records))
	for _, r := range records {
		d := models.DistractionEvent{Activity: r.Activity, Source: r.Source, DetectedAt: fromMillis(r.DetectedAt)}
		if r.Feedback != nil {
			d.SelfFeedback = &models.SelfFeedback{Comment: r.Feedback.Comment, CreatedAt: fromMillis(r.Feedback.CreatedAt)}
		}
		out = append(out, d)
	}
	return out
}
