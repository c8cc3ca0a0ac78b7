package checkpoint

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists checkpoint records in Redis, json-encoded, so a
// checkpoint survives a router process restart.
type RedisStore struct {
	client *redis.Client
	cfg    Config
	logger *slog.Logger
}

// NewRedisStore dials Redis per cfg and verifies connectivity with a Ping.
func NewRedisStore(cfg Config, logger *slog.Logger) (*RedisStore, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to checkpoint redis", "error", err, "addr", cfg.Addr)
		return nil, newError("failed to connect to redis", "CONNECTION_ERROR").withCause(err)
	}
	logger.Info("connected to checkpoint redis", "addr", cfg.Addr, "db", cfg.DB)

	return &RedisStore{client: client, cfg: cfg, logger: logger}, nil
}

func (r *RedisStore) recordKey(serviceID, checkpointID string) string {
	return r.cfg.KeyPrefix + serviceID + ":" + checkpointID
}

func (r *RedisStore) latestKey(serviceID string) string {
	return r.cfg.KeyPrefix + "latest:" + serviceID
}

func (r *RedisStore) Save(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return newError("failed to marshal checkpoint", "MARSHAL_ERROR").withCause(err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.recordKey(rec.ServiceID, rec.CheckpointID), data, 0)
	pipe.Set(ctx, r.latestKey(rec.ServiceID), rec.CheckpointID, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("failed to save checkpoint", "service_id", rec.ServiceID, "error", err)
		return newError("failed to save checkpoint", "SET_ERROR").withCause(err)
	}
	return nil
}

func (r *RedisStore) Latest(ctx context.Context, serviceID string) (Record, bool, error) {
	id, err := r.client.Get(ctx, r.latestKey(serviceID)).Result()
	if err == redis.Nil {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, newError("failed to read latest checkpoint pointer", "GET_ERROR").withCause(err)
	}
	return r.Get(ctx, serviceID, id)
}

func (r *RedisStore) Get(ctx context.Context, serviceID, checkpointID string) (Record, bool, error) {
	val, err := r.client.Get(ctx, r.recordKey(serviceID, checkpointID)).Result()
	if err == redis.Nil {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, newError("failed to get checkpoint", "GET_ERROR").withCause(err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return Record{}, false, newError("failed to unmarshal checkpoint", "UNMARSHAL_ERROR").withCause(err)
	}
	return rec, true, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
