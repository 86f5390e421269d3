// Package memory is a process-local storage driver used for development and
// tests. Every operation is serialized; transactions hold the store for their
// whole duration and restore a snapshot when they fail.
package memory

import (
	"context"
	"sync"

	"github.com/ivey1207/supperapp/internal/core/ports"
	"github.com/ivey1207/supperapp/internal/domain"
)

type txKey struct{}

type state struct {
	kiosks      map[string]domain.Kiosk
	programs    map[string]domain.Program
	controllers map[string]domain.ControllerLiveness
	commands    map[string]domain.Command
	sessions    map[string]domain.WashSession
	payments    map[string]domain.PaymentTransaction
	timeline    []domain.TimelineEvent
	nextKioskID uint
	nextEventID uint
}

func newState() *state {
	return &state{
		kiosks:      make(map[string]domain.Kiosk),
		programs:    make(map[string]domain.Program),
		controllers: make(map[string]domain.ControllerLiveness),
		commands:    make(map[string]domain.Command),
		sessions:    make(map[string]domain.WashSession),
		payments:    make(map[string]domain.PaymentTransaction),
	}
}

func (s *state) clone() *state {
	c := &state{
		kiosks:      make(map[string]domain.Kiosk, len(s.kiosks)),
		programs:    make(map[string]domain.Program, len(s.programs)),
		controllers: make(map[string]domain.ControllerLiveness, len(s.controllers)),
		commands:    make(map[string]domain.Command, len(s.commands)),
		sessions:    make(map[string]domain.WashSession, len(s.sessions)),
		payments:    make(map[string]domain.PaymentTransaction, len(s.payments)),
		timeline:    append([]domain.TimelineEvent(nil), s.timeline...),
		nextKioskID: s.nextKioskID,
		nextEventID: s.nextEventID,
	}
	for k, v := range s.kiosks {
		c.kiosks[k] = v
	}
	for k, v := range s.programs {
		c.programs[k] = v
	}
	for k, v := range s.controllers {
		c.controllers[k] = v
	}
	for k, v := range s.commands {
		c.commands[k] = v
	}
	for k, v := range s.sessions {
		c.sessions[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	return c
}

type Store struct {
	mu   sync.Mutex
	data *state
}

func NewStore() *Store {
	return &Store{data: newState()}
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// lock acquires the store unless ctx already belongs to one of its
// transactions.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *Store) Transactor() ports.Transactor { return s }
func (s *Store) Commands() ports.CommandRepository { return &commandRepository{s} }
func (s *Store) Controllers() ports.ControllerRepository { return &controllerRepository{s} }
func (s *Store) Kiosks() ports.KioskRepository { return &kioskRepository{s} }
func (s *Store) Programs() ports.ProgramRepository { return &programRepository{s} }
func (s *Store) WashSessions() ports.WashSessionRepository { return &washSessionRepository{s} }
func (s *Store) Payments() ports.PaymentRepository { return &paymentRepository{s} }
func (s *Store) Timeline() ports.TimelineRepository { return &timelineRepository{s} }
