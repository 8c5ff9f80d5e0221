// Package challenge issues single-use nonces that bind a receipt to one
// login attempt.
package challenge

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zkaccess/zkpass/shared"
)

var (
	ErrChallengeNotFound  = errors.New("challenge not found")
	ErrChallengeExpired   = errors.New("challenge expired")
	ErrChallengeConsumed  = errors.New("challenge already consumed")
	ErrChallengeMismatch  = errors.New("nonce does not match the challenge")
	ErrCommitmentMismatch = errors.New("commitment does not match")
)

const keyPrefix = "challenge/"

// Challenge is a nonce issued to a subject.
type Challenge struct {
	ID        string          `json:"id"`
	Subject   string          `json:"subject"`
	Nonce     shared.HexBytes `json:"nonce"`
	IssuedAt  time.Time       `json:"issued_at"`
	ExpiresAt time.Time       `json:"expires_at"`
	Consumed  bool            `json:"consumed"`
}

// Store persists challenges in badger.
// Expired records stay readable for one more TTL so that late attempts are
// reported as expired rather than unknown; badger drops them afterwards.
type Store struct {
	db        *badger.DB
	ttl       time.Duration
	nonceSize int
	logger    *zap.Logger
	now       func() time.Time
}

func Open(dir string, opts ...OptionFunc) (*Store, error) {
	options := &option{
		ttl:       DefaultTTL,
		nonceSize: DefaultNonceSize,
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	if err := options.validate(); err != nil {
		return nil, err
	}

	bopts := badger.DefaultOptions(dir)
	if options.inMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts = bopts.WithLogger(badgerLogger{log: options.logger.Named("badger").Sugar()})

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open challenge store: %w", err)
	}
	return &Store{
		db:        db,
		ttl:       options.ttl,
		nonceSize: options.nonceSize,
		logger:    options.logger,
		now:       options.now,
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Issue creates and persists a fresh challenge for subject.
func (s *Store) Issue(ctx context.Context, subject string) (*Challenge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	nonce, err := RandomNonce(s.nonceSize)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	c := &Challenge{
		ID:        uuid.NewString(),
		Subject:   subject,
		Nonce:     nonce,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return s.put(txn, c, 2*s.ttl)
	}); err != nil {
		return nil, fmt.Errorf("failed to persist challenge: %w", err)
	}

	s.logger.Debug("challenge issued", zap.String("id", c.ID), zap.String("subject", subject), zap.Time("expires_at", c.ExpiresAt))
	return c, nil
}

// Consume marks the challenge id as used, provided nonce matches it and it
// has not expired. A challenge can be consumed at most once.
func (s *Store) Consume(ctx context.Context, id string, nonce []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		c, err := s.get(txn, id)
		if err != nil {
			return err
		}
		switch {
		case c.Consumed:
			return ErrChallengeConsumed
		case !s.now().Before(c.ExpiresAt):
			return ErrChallengeExpired
		case subtle.ConstantTimeCompare(c.Nonce, nonce) != 1:
			return ErrChallengeMismatch
		}

		c.Consumed = true
		retention := c.ExpiresAt.Add(s.ttl).Sub(s.now())
		if retention <= 0 {
			retention = time.Second
		}
		return s.put(txn, c, retention)
	})
	switch {
	case errors.Is(err, badger.ErrConflict):
		// Another attempt consumed it concurrently.
		return ErrChallengeConsumed
	case err != nil:
		return err
	}

	s.logger.Debug("challenge consumed", zap.String("id", id))
	return nil
}

// Get returns the challenge id.
func (s *Store) Get(ctx context.Context, id string) (*Challenge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var c *Challenge
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		c, err = s.get(txn, id)
		return err
	})
	return c, err
}

// List returns all challenges still held by the store, oldest first.
func (s *Store) List(ctx context.Context) ([]Challenge, error) {
	var out []Challenge
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var c Challenge
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &c)
			}); err != nil {
				return fmt.Errorf("failed to decode challenge %s: %w", it.Item().Key(), err)
			}
			out = append(out, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortByIssued(out)
	return out, nil
}

func (s *Store) get(txn *badger.Txn, id string) (*Challenge, error) {
	item, err := txn.Get([]byte(keyPrefix + id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrChallengeNotFound
	}
	if err != nil {
		return nil, err
	}

	c := &Challenge{}
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, c)
	}); err != nil {
		return nil, fmt.Errorf("failed to decode challenge %s: %w", id, err)
	}
	return c, nil
}

func (s *Store) put(txn *badger.Txn, c *Challenge, ttl time.Duration) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return txn.SetEntry(badger.NewEntry([]byte(keyPrefix+c.ID), data).WithTTL(ttl))
}

func sortByIssued(cs []Challenge) {
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].IssuedAt.Before(cs[j].IssuedAt) })
}
