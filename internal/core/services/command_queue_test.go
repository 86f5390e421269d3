package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ivey1207/supperapp/internal/domain"
)

func TestEnqueueDefaultsAndValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cmd, err := env.queue.Enqueue(ctx, "K1", domain.RawPayload{Type: "set_light", Data: json.RawMessage(`{"frame":"01"}`)}, 0)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if cmd.Priority != domain.PriorityDefault || cmd.Status != domain.CommandStatusPending || cmd.CommandType != "set_light" {
		t.Fatalf("unexpected command %+v", cmd)
	}

	if _, err := env.queue.Enqueue(ctx, " ", domain.PauseServicePayload{}, 1); !errors.Is(err, ErrCommandInvalidInput) {
		t.Fatalf("empty controller: %v", err)
	}
	_, err = env.queue.Enqueue(ctx, "K1", domain.RawPayload{Type: "x", Data: json.RawMessage("{oops")}, 1)
	if !errors.Is(err, ErrCommandInvalidInput) || !errors.Is(err, domain.ErrInvalidPayload) {
		t.Fatalf("bad payload: %v", err)
	}
}

func TestCancelAllPendingOnlyTouchesPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	done, _ := env.queue.Enqueue(ctx, "K1", domain.PauseServicePayload{}, domain.PriorityPause)
	if _, err := env.queue.MarkFailed(ctx, done.ID, "jam"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := env.queue.Enqueue(ctx, "K1", domain.ResumeServicePayload{}, domain.PriorityPause); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	other, _ := env.queue.Enqueue(ctx, "K2", domain.ResumeServicePayload{}, domain.PriorityPause)

	n, err := env.queue.CancelAllPending(ctx, "K1")
	if err != nil || n != 3 {
		t.Fatalf("expected 3 cancelled, got %d %v", n, err)
	}
	failed, _ := env.queue.Get(ctx, done.ID)
	if failed.Status != domain.CommandStatusFailed || failed.Result != "jam" {
		t.Fatalf("terminal command touched: %+v", failed)
	}
	untouched, _ := env.queue.Get(ctx, other.ID)
	if untouched.Status != domain.CommandStatusPending {
		t.Fatalf("other controller touched: %+v", untouched)
	}
	if n, _ := env.queue.CancelAllPending(ctx, "K1"); n != 0 {
		t.Fatalf("second cancel should be a no-op, got %d", n)
	}
}

func TestListIsNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a, _ := env.queue.Enqueue(ctx, "K1", domain.PauseServicePayload{}, domain.PriorityPause)
	b, _ := env.queue.Enqueue(ctx, "K1", domain.ResumeServicePayload{}, domain.PriorityPause)

	cmds := env.commands(t, "K1", "")
	if len(cmds) != 2 || cmds[0].ID != b.ID || cmds[1].ID != a.ID {
		t.Fatalf("unexpected order %+v", cmds)
	}
	if _, err := env.queue.Get(ctx, "missing"); !errors.Is(err, ErrCommandNotFound) {
		t.Fatalf("expected ErrCommandNotFound, got %v", err)
	}
}
