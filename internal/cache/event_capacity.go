package cache

import (
	"context"
	"errors"
	"fmt"

	apperrors "eventgraph/pkg/app_errors"

	"github.com/redis/go-redis/v9"
)

// CapacityGate bounds concurrent registrations for an event before the
// database transaction runs. It is a fast best-effort guard; the transaction
// remains the source of truth.
type CapacityGate interface {
	// Warm loads an event's free-seat count, typically when the event is
	// published. Existing per-user holds are reset.
	Warm(ctx context.Context, eventID string, seats int) error
	// Reserve atomically takes one seat for userID. ErrNotTracked when the
	// event was never warmed, ErrAlreadyRegistered when the user already
	// holds a seat, ErrEventFull when no seats remain.
	Reserve(ctx context.Context, eventID, userID string) error
	// Release returns userID's seat, used on transaction failure and on
	// cancellation of a seat-holding registration.
	Release(ctx context.Context, eventID, userID string) error
}

// ErrNotTracked reports that the gate has no inventory for the event, e.g.
// after a process restart. Callers warm the gate from a live count and retry.
var ErrNotTracked = errors.New("event capacity not tracked")

type RedisCapacityGate struct {
	client *redis.Client
}

func NewRedisCapacityGate(client *redis.Client) *RedisCapacityGate {
	return &RedisCapacityGate{client: client}
}

func (g *RedisCapacityGate) seatsKey(eventID string) string {
	return fmt.Sprintf("event:%s:seats", eventID)
}

func (g *RedisCapacityGate) usersKey(eventID string) string {
	return fmt.Sprintf("event:%s:users", eventID)
}

func (g *RedisCapacityGate) Warm(ctx context.Context, eventID string, seats int) error {
	pipe := g.client.TxPipeline()
	pipe.Set(ctx, g.seatsKey(eventID), seats, 0)
	pipe.Del(ctx, g.usersKey(eventID))
	_, err := pipe.Exec(ctx)
	return err
}

// reserveScript checks the free-seat count and the caller's existing hold,
// then decrements and records in one atomic step.
const reserveScript = `
	local seats_key = KEYS[1]
	local users_key = KEYS[2]
	local user_id = ARGV[1]

	local seats = redis.call('GET', seats_key)
	if not seats then
		return -3
	end

	if redis.call('SISMEMBER', users_key, user_id) == 1 then
		return -2
	end

	if tonumber(seats) <= 0 then
		return -1
	end

	redis.call('DECR', seats_key)
	redis.call('SADD', users_key, user_id)
	return 1
`

func (g *RedisCapacityGate) Reserve(ctx context.Context, eventID, userID string) error {
	result, err := g.client.Eval(ctx, reserveScript,
		[]string{g.seatsKey(eventID), g.usersKey(eventID)}, userID).Result()
	if err != nil {
		return err
	}

	code, ok := result.(int64)
	if !ok {
		return fmt.Errorf("unexpected reserve result %v", result)
	}

	switch code {
	case 1:
		return nil
	case -1:
		return apperrors.ErrEventFull
	case -2:
		return apperrors.ErrAlreadyRegistered
	case -3:
		return ErrNotTracked
	default:
		return fmt.Errorf("unexpected reserve code %d", code)
	}
}

const releaseScript = `
	local seats_key = KEYS[1]
	local users_key = KEYS[2]
	local user_id = ARGV[1]

	if redis.call('SREM', users_key, user_id) == 1 then
		redis.call('INCR', seats_key)
	end
	return 1
`

func (g *RedisCapacityGate) Release(ctx context.Context, eventID, userID string) error {
	return g.client.Eval(ctx, releaseScript,
		[]string{g.seatsKey(eventID), g.usersKey(eventID)}, userID).Err()
}
