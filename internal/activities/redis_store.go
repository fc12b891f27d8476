package activities

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	apperrors "activities-service/internal/common/errors"

	"github.com/redis/go-redis/v9"
)

// maxTxRetries bounds optimistic transaction retries under contention.
const maxTxRetries = 16

// RedisStore keeps the registry in Redis so several replicas share it.
//
// Layout under prefix:
//
//	<prefix>:index                       list of activity names in seed order
//	<prefix>:activity:<name>:meta        hash: description, schedule, max_participants
//	<prefix>:activity:<name>:participants list of emails in signup order
type RedisStore struct {
	client *redis.Client
	prefix string
	opts   Options
}

func NewRedisStore(client *redis.Client, prefix string, opts Options) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, opts: opts}
}

func (s *RedisStore) indexKey() string {
	return s.prefix + ":index"
}

func (s *RedisStore) metaKey(name string) string {
	return fmt.Sprintf("%s:activity:%s:meta", s.prefix, name)
}

func (s *RedisStore) participantsKey(name string) string {
	return fmt.Sprintf("%s:activity:%s:participants", s.prefix, name)
}

// Seed replaces whatever registry is stored under the prefix with seed.
// Signups made through other replicas are lost; see Init.
func (s *RedisStore) Seed(ctx context.Context, seed []Activity) error {
	previous, err := s.client.LRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return apperrors.NewStoreUnavailableError(err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		s.writeSeed(ctx, pipe, seed, previous)
		return nil
	})
	if err != nil {
		return apperrors.NewStoreUnavailableError(err)
	}
	return nil
}

// Init seeds the registry only when no replica has done so yet. It reports
// whether this call wrote the seed.
func (s *RedisStore) Init(ctx context.Context, seed []Activity) (bool, error) {
	seeded := false
	txf := func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, s.indexKey()).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			s.writeSeed(ctx, pipe, seed, nil)
			return nil
		})
		if err == nil {
			seeded = true
		}
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, s.indexKey())
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return false, apperrors.NewStoreUnavailableError(err)
		}
		return seeded, nil
	}
	return false, apperrors.NewStoreUnavailableError(errors.New("registry init: too many concurrent updates"))
}

func (s *RedisStore) writeSeed(ctx context.Context, pipe redis.Pipeliner, seed []Activity, previous []string) {
	keys := []string{s.indexKey()}
	for _, name := range previous {
		keys = append(keys, s.metaKey(name), s.participantsKey(name))
	}
	pipe.Del(ctx, keys...)

	for _, a := range seed {
		pipe.RPush(ctx, s.indexKey(), a.Name)
		pipe.HSet(ctx, s.metaKey(a.Name),
			"description", a.Description,
			"schedule", a.Schedule,
			"max_participants", a.MaxParticipants,
		)
		pipe.Del(ctx, s.participantsKey(a.Name))
		if len(a.Participants) > 0 {
			pipe.RPush(ctx, s.participantsKey(a.Name), toArgs(a.Participants)...)
		}
	}
}

func (s *RedisStore) List(ctx context.Context) (Registry, error) {
	names, err := s.client.LRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError(err)
	}

	metas := make([]*redis.MapStringStringCmd, len(names))
	participants := make([]*redis.StringSliceCmd, len(names))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, name := range names {
			metas[i] = pipe.HGetAll(ctx, s.metaKey(name))
			participants[i] = pipe.LRange(ctx, s.participantsKey(name), 0, -1)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError(err)
	}

	out := make(Registry, len(names))
	for i, name := range names {
		a := activityFromMeta(name, metas[i].Val())
		a.Participants = append([]string{}, participants[i].Val()...)
		out[name] = a
	}
	return out, nil
}

func (s *RedisStore) Signup(ctx context.Context, activity, email string) error {
	metaKey, participantsKey := s.metaKey(activity), s.participantsKey(activity)

	txf := func(tx *redis.Tx) error {
		meta, err := tx.HGetAll(ctx, metaKey).Result()
		if err != nil {
			return err
		}
		if len(meta) == 0 {
			return apperrors.NewActivityNotFoundError(activity)
		}

		current, err := tx.LRange(ctx, participantsKey, 0, -1).Result()
		if err != nil {
			return err
		}
		if indexOf(current, email) >= 0 {
			return apperrors.NewAlreadySignedUpError(activity, email)
		}
		if s.opts.EnforceCapacity {
			a := activityFromMeta(activity, meta)
			a.Participants = current
			if a.SpotsLeft() == 0 {
				return apperrors.NewActivityFullError(activity, a.MaxParticipants)
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.RPush(ctx, participantsKey, email)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, participantsKey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return s.mapError(err)
	}
	return apperrors.NewStoreUnavailableError(fmt.Errorf("signup for %s: too many concurrent updates", activity))
}

func (s *RedisStore) Unregister(ctx context.Context, activity, email string) error {
	exists, err := s.client.Exists(ctx, s.metaKey(activity)).Result()
	if err != nil {
		return apperrors.NewStoreUnavailableError(err)
	}
	if exists == 0 {
		return apperrors.NewActivityNotFoundError(activity)
	}

	removed, err := s.client.LRem(ctx, s.participantsKey(activity), 1, email).Result()
	if err != nil {
		return apperrors.NewStoreUnavailableError(err)
	}
	if removed == 0 {
		return apperrors.NewParticipantNotFoundError(activity, email)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return apperrors.NewStoreUnavailableError(err)
	}
	return nil
}

// mapError passes domain errors through and wraps transport errors.
func (s *RedisStore) mapError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.AsStandardError(err); ok {
		return err
	}
	return apperrors.NewStoreUnavailableError(err)
}

func activityFromMeta(name string, meta map[string]string) Activity {
	maxParticipants, _ := strconv.Atoi(meta["max_participants"])
	return Activity{
		Name:            name,
		Description:     meta["description"],
		Schedule:        meta["schedule"],
		MaxParticipants: maxParticipants,
		Participants:    []string{},
	}
}

func toArgs(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
