package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ivey1207/supperapp/internal/core/ports"
	"github.com/ivey1207/supperapp/internal/domain"
	"github.com/ivey1207/supperapp/internal/infrastructure/events"
	"github.com/ivey1207/supperapp/internal/infrastructure/logger"
	"github.com/ivey1207/supperapp/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
)

// stepClock returns a strictly increasing time on every call.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type testEnv struct {
	store    *memory.Store
	hub      *events.Hub
	timeline *TimelinePublisher
	registry ports.ControllerRegistry
	queue    ports.CommandQueue
	sessions ports.WashSessionManager
	gateway  ports.HeartbeatGateway
	topups   ports.TopUpService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clock := newStepClock()
	store := memory.NewStore()
	hub := events.NewHub()

	set := Build(Dependencies{
		Kiosks:      store.Kiosks(),
		Programs:    store.Programs(),
		Controllers: store.Controllers(),
		Commands:    store.Commands(),
		Sessions:    store.WashSessions(),
		Payments:    store.Payments(),
		Timeline:    store.Timeline(),
		Tx:          store.Transactor(),
		Broadcaster: hub,
		Logger:      logger.NewNop(),
		Now:         clock.Now,
		EnableLocks: true,
	})

	env := &testEnv{
		store:    store,
		hub:      hub,
		timeline: set.Timeline,
		registry: set.Registry,
		queue:    set.Queue,
		sessions: set.Sessions,
		gateway:  set.Gateway,
		topups:   set.TopUps,
	}
	env.addKiosk(t, "K1", "AA:BB:CC:00:00:01", "B1")
	return env
}

func (e *testEnv) addKiosk(t *testing.T, id, mac, branch string) {
	t.Helper()
	ctx := context.Background()
	if err := e.store.Kiosks().Create(ctx, &domain.Kiosk{
		KioskID:  id,
		MacID:    mac,
		Name:     "Kiosk " + id,
		Status:   domain.KioskStatusActive,
		BranchID: branch,
		Balance:  decimal.NewFromInt(10000),
	}); err != nil {
		t.Fatalf("seed kiosk: %v", err)
	}
	programs := []domain.Program{
		{ID: id + "-foam", BranchID: branch, Name: "Foam", RelayBits: "0011", MotorFrequency: 50, Active: true},
		{ID: id + "-rinse", BranchID: branch, Name: "Rinse", RelayBits: "0101", Active: true},
		{ID: id + "-old", BranchID: branch, Name: "Wax", Active: true, Archived: true},
	}
	for i := range programs {
		if err := e.store.Programs().Create(ctx, &programs[i]); err != nil {
			t.Fatalf("seed program: %v", err)
		}
	}
}

func (e *testEnv) balance(t *testing.T, kioskID string) decimal.Decimal {
	t.Helper()
	k, err := e.store.Kiosks().GetByKioskID(context.Background(), kioskID)
	if err != nil {
		t.Fatalf("get kiosk: %v", err)
	}
	return k.Balance
}

func (e *testEnv) commands(t *testing.T, kioskID string, status domain.CommandStatus) []domain.Command {
	t.Helper()
	cmds, err := e.queue.List(context.Background(), kioskID, status)
	if err != nil {
		t.Fatalf("list commands: %v", err)
	}
	return cmds
}

func countType(cmds []domain.Command, t domain.CommandType) int {
	n := 0
	for _, c := range cmds {
		if c.CommandType == t {
			n++
		}
	}
	return n
}

func amount(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}
