package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/reelsmith/api/internal/model"
)

const (
	jobKeyPrefix = "render:job:"
	jobIndexKey  = "render:jobs"
)

// RedisStore is the production JobStore: one JSON record per job with a
// TTL safety net, plus an index set driving the sweep. The service runs
// as a single process, so a process-level mutex is enough to make the
// read-mutate-write cycle atomic per job id.
type RedisStore struct {
	redis     *redis.Client
	artifacts ArtifactRemover
	mu        keyedMutex
}

func NewRedisStore(redisClient *redis.Client, artifacts ArtifactRemover) *RedisStore {
	return &RedisStore{
		redis:     redisClient,
		artifacts: artifacts,
	}
}

func (s *RedisStore) Create(ctx context.Context, job *model.RenderJob) error {
	now := time.Now()
	stored := cloneJob(job)
	stored.CreatedAt = now
	stored.UpdatedAt = now

	if err := s.save(ctx, stored); err != nil {
		return err
	}
	if err := s.redis.SAdd(ctx, jobIndexKey, stored.ID).Err(); err != nil {
		return fmt.Errorf("failed to index job: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*model.RenderJob, error) {
	data, err := s.redis.Get(ctx, jobKeyPrefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load job: %w", err)
	}

	var job model.RenderJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}

func (s *RedisStore) Update(ctx context.Context, id string, mutate func(job *model.RenderJob)) (*model.RenderJob, error) {
	unlock := s.mu.lock(id)
	defer unlock()

	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status.Terminal() {
		return job, ErrTerminal
	}

	prevProgress := job.Progress
	mutate(job)
	if job.Progress < prevProgress {
		job.Progress = prevProgress
	}
	job.UpdatedAt = time.Now()

	if err := s.save(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *RedisStore) Cancel(ctx context.Context, id string) (*model.RenderJob, error) {
	return s.Update(ctx, id, func(job *model.RenderJob) {
		job.Status = model.JobStatusFailed
		job.Error = CancelledMessage
		completed := time.Now()
		job.CompletedAt = &completed
	})
}

func (s *RedisStore) Sweep(ctx context.Context, maxAge time.Duration) (int, error) {
	ids, err := s.redis.SMembers(ctx, jobIndexKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list jobs: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	evicted := 0
	for _, id := range ids {
		job, err := s.Get(ctx, id)
		if err == ErrNotFound {
			// TTL safety net already expired the record.
			s.redis.SRem(ctx, jobIndexKey, id)
			continue
		}
		if err != nil {
			return evicted, err
		}
		if !job.CreatedAt.Before(cutoff) {
			continue
		}

		if job.OutputURL != "" && s.artifacts != nil {
			if err := s.artifacts.RemoveArtifact(ctx, job.OutputURL); err != nil {
				log.Printf("Failed to remove artifact for job %s: %v", id, err)
			}
		}
		if err := s.redis.Del(ctx, jobKeyPrefix+id).Err(); err != nil {
			return evicted, fmt.Errorf("failed to evict job %s: %w", id, err)
		}
		s.redis.SRem(ctx, jobIndexKey, id)
		evicted++
	}
	return evicted, nil
}

func (s *RedisStore) save(ctx context.Context, job *model.RenderJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	// TTL is a safety net twice the sweep threshold; the sweep is the
	// deterministic eviction path because it also deletes artifacts.
	return s.redis.Set(ctx, jobKeyPrefix+job.ID, data, 2*DefaultMaxAge).Err()
}
