// Package engine implements the entity lifecycle and cascade-consistency
// rules of the content hierarchy: per-kind state machines, cascading status
// propagation down Post -> Comment -> Reply, the reaction registry, tag
// membership, and the counter ledger. It is persistence-agnostic; everything
// durable goes through a storage.Store.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/freedeaths/SUT-OpenAPI-Blog/storage"
)

const defaultMaxRetries = 3

// Engine executes lifecycle operations against a transactional store. It is
// stateless between calls and safe for concurrent use.
type Engine struct {
	store      storage.Store
	now        func() time.Time
	maxRetries int
	log        *zap.SugaredLogger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the timestamp source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger attaches a zap logger. Without it the engine stays silent.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l.Sugar() }
}

// WithMaxRetries bounds how often a conflicted transaction is retried before
// the operation surfaces ErrTransient.
func WithMaxRetries(n int) Option {
	return func(e *Engine) { e.maxRetries = n }
}

// New creates an Engine on top of the given store.
func New(store storage.Store, opts ...Option) *Engine {
	e := &Engine{
		store:      store,
		now:        func() time.Time { return time.Now().UTC() },
		maxRetries: defaultMaxRetries,
		log:        zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// atomic runs fn in a store transaction, retrying serialization conflicts a
// bounded number of times. fn must be safe to re-run from scratch: every
// operation re-reads its entities inside the transaction.
func (e *Engine) atomic(ctx context.Context, fn func(tx storage.Tx) error) error {
	var err error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		err = e.store.Atomic(ctx, fn)
		if !errors.Is(err, storage.ErrTxConflict) {
			return err
		}
		e.log.Debugw("retrying conflicted transaction", "attempt", attempt+1)
	}
	return fmt.Errorf("%w: %v", ErrTransient, err)
}

// view runs fn against a read-only transaction.
func (e *Engine) view(ctx context.Context, fn func(tx storage.Tx) error) error {
	return e.store.View(ctx, fn)
}

// requireActor verifies the acting user exists and is active. A missing or
// deactivated actor cannot hold any relationship, so both read as forbidden.
func requireActor(tx storage.Tx, actorID string) error {
	if actorID == "" {
		return fmt.Errorf("%w: missing actor", ErrForbidden)
	}
	u, err := tx.GetUser(actorID)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: unknown actor %s", ErrForbidden, actorID)
	}
	if err != nil {
		return err
	}
	if !u.IsActive {
		return fmt.Errorf("%w: actor %s is deactivated", ErrForbidden, actorID)
	}
	return nil
}

// lineage carries the author chain of an entity up to its post root, for
// evaluating relationship guards.
type lineage struct {
	author        string
	commentAuthor string
	postAuthor    string
}

func (l lineage) permits(rel relationship, actorID string) bool {
	switch rel {
	case relAuthor:
		return actorID == l.author
	case relAuthorOrPostAuthor:
		return actorID == l.author || actorID == l.postAuthor
	case relAuthorOrAncestor:
		return actorID == l.author || actorID == l.commentAuthor || actorID == l.postAuthor
	}
	return false
}
