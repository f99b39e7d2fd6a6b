// Package idempotency implements the two-tier Idempotency Store of
// spec.md §4.4: a Redis SetNX fast-path lock in front of the durable
// Postgres record. Grounded on the teacher's
// CreateOrCheckIdempotencyKey (create-idempotency-key_test.go): SetNX
// claims the slot, a miss falls through to a Get that distinguishes
// "still in flight" (empty value) from "raced away" (redis.Nil) from
// "done" (cached value) — generalized here from a single cached
// transaction blob to the Busy/Conflict/Done outcomes spec.md §4.4
// names explicitly, with Postgres as the durable tier instead of a
// second Redis value.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/ledgercore/core/internal/canonical"
	"github.com/ledgercore/core/internal/ledger"
	"github.com/ledgercore/core/internal/retry"
	"github.com/ledgercore/core/internal/scope"
	"github.com/ledgercore/core/internal/storage"
)

// RedisClient is the subset of *redis.Client the fast-path lock needs,
// kept as a narrow interface so tests can substitute an in-memory fake
// instead of a live Redis the way the teacher substitutes
// redis.NewMockRedisRepository.
type RedisClient interface {
	SetNX(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, key string) error
}

// ErrNotFound is returned by RedisClient.Get when key has no value,
// the fast-path-lock equivalent of go-redis's redis.Nil.
var ErrNotFound = errors.New("idempotency: key not found")

// Store is the Idempotency Store: Redis claims the slot, Postgres
// durably records the outcome.
type Store struct {
	Redis RedisClient
	Repo  storage.IdempotencyRepository
	TTL   time.Duration
	Poll  retry.Config
}

// Outcome reports what Begin found. Claimed is true exactly when the
// caller owns this attempt and must call Finalize when it completes;
// otherwise Record already holds a previous attempt's final response.
type Outcome struct {
	Record  *ledger.IdempotencyRecord
	Claimed bool
}

// Begin claims operation+key for the active company, or returns the
// previous attempt's outcome if one already exists. requestPayload is
// canonicalized and hashed (internal/canonical) to detect the same key
// reused with a different payload, spec.md §4.4's Conflict case.
func (s *Store) Begin(ctx context.Context, operation ledger.Operation, key string, requestPayload any) (*Outcome, error) {
	companyID, err := scope.RequireCompany(ctx)
	if err != nil {
		return nil, err
	}

	if key == "" {
		return nil, ledger.Validation(ledger.CodeIdempotencyKeyRequired, "idempotency key is required")
	}

	fingerprint, err := canonical.Hash(requestPayload)
	if err != nil {
		return nil, ledger.Wrap(ledger.KindStorage, ledger.CodeStorage, err)
	}

	redisKey := internalKey(companyID.String(), operation, key)

	claimed, err := s.Redis.SetNX(ctx, redisKey, s.TTL)
	if err != nil {
		return nil, ledger.Wrap(ledger.KindStorage, ledger.CodeStorage, err)
	}

	if claimed {
		return s.beginClaimed(ctx, operation, key, fingerprint, redisKey)
	}

	return s.awaitExisting(ctx, operation, key, fingerprint)
}

func (s *Store) beginClaimed(ctx context.Context, operation ledger.Operation, key, fingerprint, redisKey string) (*Outcome, error) {
	existing, err := s.Repo.LoadIdempotency(ctx, string(operation), key)
	if err != nil {
		_ = s.Redis.Del(ctx, redisKey)
		return nil, err
	}

	if existing != nil {
		_ = s.Redis.Del(ctx, redisKey)

		if existing.Fingerprint != fingerprint {
			return nil, ledger.New(ledger.KindIdempotency, ledger.CodeIdempotencyConflict, "idempotency key reused with a different request payload")
		}

		return &Outcome{Record: existing, Claimed: existing.State != ledger.IdempotencyDone}, nil
	}

	now := time.Now().UTC()
	rec := &ledger.IdempotencyRecord{
		Operation:   operation,
		Key:         key,
		Fingerprint: fingerprint,
		State:       ledger.IdempotencyInFlight,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.TTL),
	}

	if err := s.Repo.InsertIdempotencyInFlight(ctx, rec); err != nil {
		_ = s.Redis.Del(ctx, redisKey)
		return nil, ledger.Wrap(ledger.KindIdempotency, ledger.CodeBusy, err)
	}

	return &Outcome{Record: rec, Claimed: true}, nil
}

// awaitExisting polls the durable record with bounded backoff
// (internal/retry) until the in-flight attempt finishes or the poll
// budget is exhausted, at which point it reports Busy rather than
// blocking forever — spec.md §4.4's bounded-wait requirement.
func (s *Store) awaitExisting(ctx context.Context, operation ledger.Operation, key, fingerprint string) (*Outcome, error) {
	var found *ledger.IdempotencyRecord

	err := retry.Do(ctx, s.Poll, func(ctx context.Context, attempt int) error {
		rec, err := s.Repo.LoadIdempotency(ctx, string(operation), key)
		if err != nil {
			return err
		}

		if rec == nil || rec.State == ledger.IdempotencyInFlight {
			return retry.Retryable{Err: ledger.New(ledger.KindIdempotency, ledger.CodeBusy, "idempotency key is in use")}
		}

		found = rec

		return nil
	})
	if err != nil {
		return nil, err
	}

	if found.Fingerprint != fingerprint {
		return nil, ledger.New(ledger.KindIdempotency, ledger.CodeIdempotencyConflict, "idempotency key reused with a different request payload")
	}

	return &Outcome{Record: found, Claimed: false}, nil
}

// Finalize records operation+key's response so every later call with
// the same key replays it instead of re-executing the mutation
// (spec.md §4.4).
func (s *Store) Finalize(ctx context.Context, operation ledger.Operation, key string, status int, responseBody []byte) error {
	return s.Repo.FinalizeIdempotency(ctx, string(operation), key, status, responseBody)
}

func internalKey(companyID string, operation ledger.Operation, key string) string {
	return "idemp:" + companyID + ":" + string(operation) + ":" + key
}
