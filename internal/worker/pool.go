package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"mentorlog-backend/internal/models"
)

const (
	BoardEntryQueue   = "queue:board-entries"
	defaultMaxRetries = 5
	popTimeout        = 5 * time.Second
	lockTTL           = 2 * time.Minute
)

type entryWriter interface {
	CreateEntry(ctx context.Context, boardID, authorID uuid.UUID, title, body string) (*models.BoardEntry, error)
}

// Pool drains the board entry retry queue. Each job is written at most once
// per attempt across processes thanks to a per-job Redis lock.
type Pool struct {
	redis       *redis.Client
	boards      entryWriter
	workerCount int
	stopChan    chan struct{}
	wg          sync.WaitGroup
}

func NewPool(redisClient *redis.Client, boards entryWriter, workerCount int) *Pool {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &Pool{
		redis:       redisClient,
		boards:      boards,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

// Enqueue schedules another attempt for a board entry.
func (p *Pool) Enqueue(ctx context.Context, job models.BoardEntryJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.MaxRetries <= 0 {
		job.MaxRetries = defaultMaxRetries
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode board entry job: %w", err)
	}
	if err := p.redis.RPush(ctx, BoardEntryQueue, data).Err(); err != nil {
		return fmt.Errorf("enqueue board entry job: %w", err)
	}
	return nil
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	log.Info().Int("workers", p.workerCount).Msg("Started board entry workers")
}

// Stop signals the workers and waits for in-flight jobs. A worker blocked in
// BLPOP notices within popTimeout.
func (p *Pool) Stop() {
	close(p.stopChan)
	p.wg.Wait()
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopChan:
			log.Debug().Int("worker", id).Msg("Board entry worker shutting down")
			return
		default:
		}

		ctx := context.Background()

		result, err := p.redis.BLPop(ctx, popTimeout, BoardEntryQueue).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				log.Warn().Err(err).Int("worker", id).Msg("Board entry queue read failed")
				time.Sleep(time.Second)
			}
			continue
		}
		if len(result) < 2 {
			continue
		}

		var job models.BoardEntryJob
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Error().Err(err).Int("worker", id).Msg("Failed to parse board entry job")
			continue
		}

		p.process(ctx, id, &job)
	}
}

func (p *Pool) process(ctx context.Context, workerID int, job *models.BoardEntryJob) {
	lockKey := fmt.Sprintf("board_entry_lock:%s", job.ID.String())
	locked, err := p.redis.SetNX(ctx, lockKey, "1", lockTTL).Result()
	if err != nil || !locked {
		return
	}
	defer p.redis.Del(ctx, lockKey)

	logger := log.With().
		Int("worker", workerID).
		Str("job_id", job.ID.String()).
		Str("session_id", job.SessionID.String()).
		Logger()

	if _, err := p.boards.CreateEntry(ctx, job.BoardID, job.AuthorID, job.Title, job.Body); err != nil {
		p.handleFailure(job, err)
		return
	}
	logger.Info().Int("retry", job.RetryCount).Msg("Board entry written on retry")
}

func (p *Pool) handleFailure(job *models.BoardEntryJob, cause error) {
	job.RetryCount++
	logger := log.With().Str("job_id", job.ID.String()).Int("retry", job.RetryCount).Logger()

	if job.RetryCount >= job.MaxRetries {
		logger.Error().Err(cause).Msg("Board entry dropped after max retries")
		return
	}

	// Exponential backoff: 2s, 4s, 8s...
	backoff := time.Duration(1<<job.RetryCount) * time.Second
	logger.Warn().Err(cause).Dur("backoff", backoff).Msg("Board entry failed, requeueing")

	retry := *job
	time.AfterFunc(backoff, func() {
		if err := p.Enqueue(context.Background(), retry); err != nil {
			log.Error().Err(err).Str("job_id", retry.ID.String()).Msg("Failed to requeue board entry")
		}
	})
}
