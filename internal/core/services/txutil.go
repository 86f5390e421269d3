package services

import (
	"context"
	"sync"
	"time"

	"github.com/ivey1207/supperapp/internal/core/ports"
)

type afterCommitKey struct{}

// afterCommitHooks collects side effects (events, metrics) that must only
// happen once the surrounding transaction has committed.
type afterCommitHooks struct {
	base context.Context
	mu   sync.Mutex
	fns  []func(ctx context.Context)
}

func (h *afterCommitHooks) add(fn func(ctx context.Context)) {
	h.mu.Lock()
	h.fns = append(h.fns, fn)
	h.mu.Unlock()
}

func (h *afterCommitHooks) run() {
	h.mu.Lock()
	fns := h.fns
	h.fns = nil
	h.mu.Unlock()
	for _, fn := range fns {
		fn(h.base)
	}
}

// afterCommit runs fn immediately when ctx is not inside runInTx, otherwise
// defers it until the outermost transaction commits. Deferred hooks receive
// the context the transaction was started with.
func afterCommit(ctx context.Context, fn func(ctx context.Context)) {
	if h, ok := ctx.Value(afterCommitKey{}).(*afterCommitHooks); ok {
		h.add(fn)
		return
	}
	fn(ctx)
}

// runInTx executes fn in one storage transaction. Nested calls join the
// outer transaction and its hooks.
func runInTx(ctx context.Context, tx ports.Transactor, fn func(ctx context.Context) error) error {
	if _, nested := ctx.Value(afterCommitKey{}).(*afterCommitHooks); nested {
		return fn(ctx)
	}
	hooks := &afterCommitHooks{base: ctx}
	txCtx := context.WithValue(ctx, afterCommitKey{}, hooks)

	var err error
	if tx == nil {
		err = fn(txCtx)
	} else {
		err = tx.WithinTransaction(txCtx, fn)
	}
	if err != nil {
		return err
	}
	hooks.run()
	return nil
}

func clockOrDefault(now func() time.Time) func() time.Time {
	if now != nil {
		return func() time.Time { return now().UTC() }
	}
	return func() time.Time { return time.Now().UTC() }
}
