package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/turtacn/ScenarioIQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScenarioIQ/pkg/errors"
)

// releaseScript deletes the lock only when the caller still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Mutex is a best-effort distributed lock.  The worker takes it before a
// dedup sweep so overlapping instances do not recluster the same corpus.
type Mutex struct {
	client *Client
	name   string
	ttl    time.Duration
	token  string
	logger logging.Logger
}

// NewMutex constructs a named lock.  The TTL bounds how long a crashed
// holder can block others.
func NewMutex(client *Client, name string, ttl time.Duration, logger logging.Logger) *Mutex {
	return &Mutex{
		client: client,
		name:   name,
		ttl:    ttl,
		logger: logger.Named("lock"),
	}
}

// TryLock attempts to take the lock without blocking.  It returns false when
// another holder owns it.
func (m *Mutex) TryLock(ctx context.Context) (bool, error) {
	token := uuid.NewString()
	ok, err := m.client.rdb.SetNX(ctx, m.client.key("lock:"+m.name), token, m.ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "lock acquisition failed")
	}
	if ok {
		m.token = token
	}
	return ok, nil
}

// Unlock releases the lock if this instance still holds it.  Releasing a
// lock that expired and was retaken elsewhere is a no-op.
func (m *Mutex) Unlock(ctx context.Context) error {
	if m.token == "" {
		return nil
	}
	released, err := releaseScript.Run(ctx, m.client.rdb,
		[]string{m.client.key("lock:" + m.name)}, m.token).Int()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "lock release failed")
	}
	if released == 0 {
		m.logger.Warn("lock expired before release", logging.String("name", m.name))
	}
	m.token = ""
	return nil
}
