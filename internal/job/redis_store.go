package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tripforge/tripforge/internal/itinerary"
)

// DefaultKeyPrefix namespaces job hashes.
const DefaultKeyPrefix = "tripforge:job:"

// finishScript moves a pending job to a terminal status with one HSET.
// Returns -1 when the job does not exist and 0 when it is already finished.
var finishScript = redis.NewScript(`
local s = redis.call('HGET', KEYS[1], 'status')
if not s then return -1 end
if s ~= 'pending' then return 0 end
redis.call('HSET', KEYS[1], 'status', ARGV[1], ARGV[2], ARGV[3], 'updated_at', ARGV[4])
return 1
`)

// RedisStore keeps each job in a hash that expires after ttl, so every API
// instance sharing the Redis server sees the same jobs.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed job store.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{client: client, prefix: DefaultKeyPrefix, ttl: ttl}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

// Create stores a new job and sets its expiry.
func (s *RedisStore) Create(ctx context.Context, job *Job) error {
	k := s.key(job.ID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k,
			"id", job.ID,
			"user_id", job.UserID,
			"status", string(job.Status),
			"created_at", job.CreatedAt.UTC().Format(time.RFC3339Nano),
			"updated_at", job.UpdatedAt.UTC().Format(time.RFC3339Nano),
		)
		pipe.Expire(ctx, k, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("creating job: %w", err)
	}
	return nil
}

// Get retrieves a job by ID.
func (s *RedisStore) Get(ctx context.Context, id string) (*Job, error) {
	fields, err := s.client.HGetAll(ctx, s.key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("getting job: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrJobNotFound
	}

	j := &Job{
		ID:     fields["id"],
		UserID: fields["user_id"],
		Status: Status(fields["status"]),
		Error:  fields["error"],
	}
	j.CreatedAt, _ = time.Parse(time.RFC3339Nano, fields["created_at"])
	j.UpdatedAt, _ = time.Parse(time.RFC3339Nano, fields["updated_at"])

	if raw := fields["itinerary"]; raw != "" {
		var it itinerary.Itinerary
		if err := json.Unmarshal([]byte(raw), &it); err != nil {
			return nil, fmt.Errorf("decoding job itinerary: %w", err)
		}
		j.Itinerary = &it
	}
	return j, nil
}

// Complete marks a pending job completed.
func (s *RedisStore) Complete(ctx context.Context, id string, it *itinerary.Itinerary) error {
	data, err := json.Marshal(it)
	if err != nil {
		return fmt.Errorf("encoding itinerary: %w", err)
	}
	return s.finish(ctx, id, StatusCompleted, "itinerary", string(data))
}

// Fail marks a pending job failed.
func (s *RedisStore) Fail(ctx context.Context, id string, message string) error {
	return s.finish(ctx, id, StatusFailed, "error", message)
}

func (s *RedisStore) finish(ctx context.Context, id string, status Status, field, value string) error {
	res, err := finishScript.Run(ctx, s.client, []string{s.key(id)},
		string(status), field, value, time.Now().UTC().Format(time.RFC3339Nano),
	).Int()
	if err != nil {
		return fmt.Errorf("finishing job: %w", err)
	}
	switch res {
	case -1:
		return ErrJobNotFound
	case 0:
		return ErrAlreadyFinished
	default:
		return nil
	}
}

var _ Store = (*RedisStore)(nil)
