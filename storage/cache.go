package storage

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/DevADOBAN/Taskhub/domain"
)

type taskBackend interface {
	CreateTask(ctx context.Context, ownerID int64, in domain.NewTask) (domain.Task, error)
	ListTasks(ctx context.Context, ownerID int64) ([]domain.Task, error)
	GetTask(ctx context.Context, ownerID, taskID int64) (domain.Task, error)
	UpdateTask(ctx context.Context, ownerID, taskID int64, patch domain.TaskPatch) (domain.Task, error)
	DeleteTask(ctx context.Context, ownerID, taskID int64) error
	Ping(ctx context.Context) error
}

const evictTimeout = 2 * time.Second

// Cache wraps a task backend with a Redis-backed cache of each owner's task
// list. Each owner also has a generation counter, bumped on every mutation;
// a list read from the backend is only cached if the generation did not move
// while it was being read.
type Cache struct {
	base   taskBackend
	redis  *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

// NewCache creates a caching wrapper using the provided Redis client and TTL.
// A nil client or zero TTL disables caching.
func NewCache(base taskBackend, client *redis.Client, ttl time.Duration, logger *log.Logger) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	if logger == nil {
		logger = log.StandardLogger()
	}

	return &Cache{
		base:   base,
		redis:  client,
		ttl:    ttl,
		logger: logger,
	}
}

// Ping reports whether the backing store is reachable. Redis is optional and
// not checked.
func (c *Cache) Ping(ctx context.Context) error {
	return c.base.Ping(ctx)
}

func (c *Cache) ListTasks(ctx context.Context, ownerID int64) ([]domain.Task, error) {
	if tasks, ok := c.loadTasks(ctx, ownerID); ok {
		return tasks, nil
	}

	gen, genOK := c.generation(ctx, ownerID)
	tasks, err := c.base.ListTasks(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if genOK {
		c.storeTasks(ctx, ownerID, gen, tasks)
	}
	return tasks, nil
}

func (c *Cache) GetTask(ctx context.Context, ownerID, taskID int64) (domain.Task, error) {
	return c.base.GetTask(ctx, ownerID, taskID)
}

func (c *Cache) CreateTask(ctx context.Context, ownerID int64, in domain.NewTask) (domain.Task, error) {
	task, err := c.base.CreateTask(ctx, ownerID, in)
	if err != nil {
		return domain.Task{}, err
	}
	c.evict(ctx, ownerID)
	return task, nil
}

func (c *Cache) UpdateTask(ctx context.Context, ownerID, taskID int64, patch domain.TaskPatch) (domain.Task, error) {
	task, err := c.base.UpdateTask(ctx, ownerID, taskID, patch)
	if err != nil {
		return domain.Task{}, err
	}
	c.evict(ctx, ownerID)
	return task, nil
}

func (c *Cache) DeleteTask(ctx context.Context, ownerID, taskID int64) error {
	if err := c.base.DeleteTask(ctx, ownerID, taskID); err != nil {
		return err
	}
	c.evict(ctx, ownerID)
	return nil
}

func (c *Cache) loadTasks(ctx context.Context, ownerID int64) ([]domain.Task, bool) {
	if c.redis == nil || c.ttl == 0 {
		return nil, false
	}
	key := tasksCacheKey(ownerID)
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			// Fall back to the database without failing the request.
			c.logger.WithError(err).WithField("key", key).Warn("task cache read failed")
			_ = c.redis.Del(ctx, key).Err()
		}
		return nil, false
	}
	var tasks []domain.Task
	if err := sonic.Unmarshal(data, &tasks); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return nil, false
	}
	return tasks, true
}

// generation returns the owner's current mutation counter. ok is false when
// Redis cannot be read, in which case nothing should be cached.
func (c *Cache) generation(ctx context.Context, ownerID int64) (int64, bool) {
	if c.redis == nil || c.ttl == 0 {
		return 0, false
	}
	gen, err := c.redis.Get(ctx, tasksGenKey(ownerID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		c.logger.WithError(err).WithField("owner_id", ownerID).Warn("task cache generation read failed")
		return 0, false
	}
	return gen, true
}

// storeTasks caches tasks only if the owner's generation still equals gen.
func (c *Cache) storeTasks(ctx context.Context, ownerID, gen int64, tasks []domain.Task) {
	data, err := sonic.Marshal(tasks)
	if err != nil {
		return
	}
	genKey := tasksGenKey(ownerID)
	err = c.redis.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, genKey).Int64()
		if errors.Is(err, redis.Nil) {
			cur, err = 0, nil
		}
		if err != nil {
			return err
		}
		if cur != gen {
			return redis.TxFailedErr
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, tasksCacheKey(ownerID), data, c.ttl)
			return nil
		})
		return err
	}, genKey)
	switch {
	case errors.Is(err, redis.TxFailedErr):
		c.logger.WithField("owner_id", ownerID).Debug("task list changed while loading; not cached")
	case err != nil:
		c.logger.WithError(err).Warn("task cache write failed")
	}
}

// evict bumps the owner's generation and drops the cached list. It runs
// detached from ctx so a committed mutation is never left behind a stale
// entry because the caller went away.
func (c *Cache) evict(ctx context.Context, ownerID int64) {
	if c.redis == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), evictTimeout)
	defer cancel()

	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, tasksGenKey(ownerID))
		pipe.Del(ctx, tasksCacheKey(ownerID))
		return nil
	})
	if err != nil {
		c.logger.WithError(err).WithField("owner_id", ownerID).Warn("task cache eviction failed")
	}
}

func tasksCacheKey(ownerID int64) string {
	return "tasks:" + strconv.FormatInt(ownerID, 10)
}

func tasksGenKey(ownerID int64) string {
	return "tasks:gen:" + strconv.FormatInt(ownerID, 10)
}
