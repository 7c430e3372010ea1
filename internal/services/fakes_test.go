package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"mentorlog-backend/internal/models"
	"mentorlog-backend/internal/repository"
)

func cloneSession(s *models.StudySession) *models.StudySession {
	c := *s
	if s.EndedAt != nil {
		t := *s.EndedAt
		c.EndedAt = &t
	}
	c.StudyNotes = append([]models.StudyNote(nil), s.StudyNotes...)
	c.Questions = append([]models.Question(nil), s.Questions...)
	c.Distractions = s.CopyDistractions()
	return &c
}

type memSessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*models.StudySession
	updates  int
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: map[uuid.UUID]*models.StudySession{}}
}

func (m *memSessionStore) Create(_ context.Context, s *models.StudySession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.Version = 1
	m.sessions[s.ID] = cloneSession(s)
	return nil
}

func (m *memSessionStore) GetByID(_ context.Context, id uuid.UUID) (*models.StudySession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return cloneSession(s), nil
}

func (m *memSessionStore) Update(_ context.Context, s *models.StudySession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.sessions[s.ID]
	if !ok || cur.Version != s.Version {
		return repository.ErrVersionConflict
	}
	s.Version++
	m.sessions[s.ID] = cloneSession(s)
	m.updates++
	return nil
}

func (m *memSessionStore) list(match func(*models.StudySession) bool) []*models.StudySession {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.StudySession
	for _, s := range m.sessions {
		if match(s) {
			out = append(out, cloneSession(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

func (m *memSessionStore) ListByMentee(_ context.Context, menteeID uuid.UUID) ([]*models.StudySession, error) {
	return m.list(func(s *models.StudySession) bool { return s.MenteeID == menteeID }), nil
}

func (m *memSessionStore) ListByPairing(_ context.Context, pairingID uuid.UUID) ([]*models.StudySession, error) {
	return m.list(func(s *models.StudySession) bool { return s.PairingID == pairingID }), nil
}

func (m *memSessionStore) ListEndedBetween(_ context.Context, pairingID uuid.UUID, from, to time.Time) ([]*models.StudySession, error) {
	return m.list(func(s *models.StudySession) bool {
		return s.PairingID == pairingID && s.EndedAt != nil && !s.EndedAt.Before(from) && s.EndedAt.Before(to)
	}), nil
}

type memReportStore struct {
	mu        sync.Mutex
	reports   []*models.SessionReport
	createErr error
}

func (m *memReportStore) Create(_ context.Context, rep *models.SessionReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if rep.ID == uuid.Nil {
		rep.ID = uuid.New()
	}
	c := *rep
	m.reports = append(m.reports, &c)
	return nil
}

func (m *memReportStore) CountByPairing(_ context.Context, pairingID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.reports {
		if r.PairingID == pairingID {
			n++
		}
	}
	return n, nil
}

func (m *memReportStore) GetByID(_ context.Context, id uuid.UUID) (*models.SessionReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reports {
		if r.ID == id {
			c := *r
			c.Distractions = append([]models.DistractionEvent(nil), r.Distractions...)
			return &c, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memReportStore) ListByPairing(_ context.Context, pairingID uuid.UUID) ([]*models.SessionReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.SessionReport
	for _, r := range m.reports {
		if r.PairingID == pairingID {
			c := *r
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *memReportStore) SetMentorFeedback(_ context.Context, id uuid.UUID, fb *models.MentorFeedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reports {
		if r.ID == id {
			if r.MentorFeedback != nil {
				return repository.ErrAlreadySet
			}
			r.MentorFeedback = fb
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (m *memReportStore) ReplaceDistractions(_ context.Context, id uuid.UUID, _, next []models.DistractionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reports {
		if r.ID == id {
			r.Distractions = next
			return nil
		}
	}
	return repository.ErrVersionConflict
}

type weeklyKey struct {
	pairing uuid.UUID
	week    int64
}

type memWeeklyStore struct {
	mu       sync.Mutex
	reports  map[weeklyKey]*models.WeeklyReport
	replaced int
}

func newMemWeeklyStore() *memWeeklyStore {
	return &memWeeklyStore{reports: map[weeklyKey]*models.WeeklyReport{}}
}

func (m *memWeeklyStore) Exists(_ context.Context, pairingID uuid.UUID, weekStart time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.reports[weeklyKey{pairingID, weekStart.Unix()}]
	return ok, nil
}

func (m *memWeeklyStore) Insert(_ context.Context, w *models.WeeklyReport) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := weeklyKey{w.PairingID, w.WeekStart.Unix()}
	if _, ok := m.reports[k]; ok {
		return false, nil
	}
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	m.reports[k] = w
	return true, nil
}

func (m *memWeeklyStore) Replace(_ context.Context, w *models.WeeklyReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	m.reports[weeklyKey{w.PairingID, w.WeekStart.Unix()}] = w
	m.replaced++
	return nil
}

func (m *memWeeklyStore) ListByPairing(_ context.Context, pairingID uuid.UUID) ([]*models.WeeklyReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.WeeklyReport
	for k, w := range m.reports {
		if k.pairing == pairingID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart.After(out[j].WeekStart) })
	return out, nil
}

func (m *memWeeklyStore) Latest(ctx context.Context, pairingID uuid.UUID) (*models.WeeklyReport, error) {
	all, _ := m.ListByPairing(ctx, pairingID)
	if len(all) == 0 {
		return nil, pgx.ErrNoRows
	}
	return all[0], nil
}

type memPairings struct {
	pairings map[uuid.UUID]*models.Pairing
}

func newMemPairings(ps ...*models.Pairing) *memPairings {
	m := &memPairings{pairings: map[uuid.UUID]*models.Pairing{}}
	for _, p := range ps {
		m.pairings[p.ID] = p
	}
	return m
}

func (m *memPairings) GetByID(_ context.Context, id uuid.UUID) (*models.Pairing, error) {
	p, ok := m.pairings[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

func (m *memPairings) ListConfirmed(_ context.Context) ([]*models.Pairing, error) {
	var out []*models.Pairing
	for _, p := range m.pairings {
		if p.Confirmed() {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

type memBoards struct {
	mu      sync.Mutex
	boards  map[uuid.UUID]*models.Board
	entries  []*models.BoardEntry
	failOn   map[string]bool
	attempts map[string]int
}

func newMemBoards() *memBoards {
	return &memBoards{boards: map[uuid.UUID]*models.Board{}, failOn: map[string]bool{}, attempts: map[string]int{}}
}

func (m *memBoards) addBoard(pairingID uuid.UUID) *models.Board {
	b := &models.Board{ID: uuid.New(), PairingID: pairingID, Title: "Q&A"}
	m.boards[pairingID] = b
	return b
}

func (m *memBoards) FindByPairing(_ context.Context, pairingID uuid.UUID) (*models.Board, error) {
	b, ok := m.boards[pairingID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return b, nil
}

func (m *memBoards) CreateEntry(_ context.Context, boardID, authorID uuid.UUID, title, body string) (*models.BoardEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[body]++
	if m.failOn[body] {
		return nil, errors.New("board unavailable")
	}
	e := &models.BoardEntry{
		ID:       uuid.New(),
		BoardID:  boardID,
		AuthorID: authorID,
		EntryNo:  len(m.entries) + 1,
		Title:    title,
		Body:     body,
		Status:   "INCOMPLETE",
	}
	m.entries = append(m.entries, e)
	return e, nil
}

type recordingRetryQueue struct {
	jobs []models.BoardEntryJob
}

func (q *recordingRetryQueue) Enqueue(_ context.Context, job models.BoardEntryJob) error {
	q.jobs = append(q.jobs, job)
	return nil
}

type stubSummarizer struct {
	summary string
	err     error
	calls   []string
}

func (s *stubSummarizer) Summarize(_ context.Context, text string) (string, error) {
	s.calls = append(s.calls, text)
	return s.summary, s.err
}

type stubNarrative struct {
	summary string
	err     error
	digests []WeeklyDigest
}

func (s *stubNarrative) SummarizeWeek(_ context.Context, d WeeklyDigest) (string, error) {
	s.digests = append(s.digests, d)
	return s.summary, s.err
}

type stubVision struct {
	enabled bool
	verdict *VisionVerdict
	err     error
	calls   int
}

func (s *stubVision) Enabled() bool { return s.enabled }

func (s *stubVision) AnalyzeFrame(_ context.Context, _ uuid.UUID, _ []byte, _ string) (*VisionVerdict, error) {
	s.calls++
	return s.verdict, s.err
}

type recordingNotifier struct {
	mu      sync.Mutex
	updates []models.SessionStatus
}

func (n *recordingNotifier) SessionUpdated(_ context.Context, s *models.StudySession) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updates = append(n.updates, s.Status)
}

// fakeClock hands out a fixed instant that tests advance explicitly.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Set(t time.Time) { c.t = t }
