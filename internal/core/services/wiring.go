package services

import (
	"time"

	"github.com/ivey1207/supperapp/internal/core/ports"
	"github.com/ivey1207/supperapp/internal/infrastructure/logger"
)

// Dependencies are the storage ports and shared infrastructure every
// service is built from. Both storage drivers fill the same struct.
type Dependencies struct {
	Kiosks      ports.KioskRepository
	Programs    ports.ProgramRepository
	Controllers ports.ControllerRepository
	Commands    ports.CommandRepository
	Sessions    ports.WashSessionRepository
	Payments    ports.PaymentRepository
	Timeline    ports.TimelineRepository
	Tx          ports.Transactor
	Broadcaster Broadcaster
	Logger      *logger.Logger
	Now         func() time.Time
	EnableLocks bool
}

type Set struct {
	Registry ports.ControllerRegistry
	Queue    ports.CommandQueue
	Gateway  ports.HeartbeatGateway
	Sessions ports.WashSessionManager
	TopUps   ports.TopUpService
	Timeline *TimelinePublisher
}

func Build(d Dependencies) *Set {
	timeline := NewTimelinePublisher(d.Timeline, d.Broadcaster, d.Logger)
	registry := NewControllerRegistry(d.Controllers, d.Logger, d.Now)
	queue := NewCommandQueue(CommandQueueConfig{
		Repo:   d.Commands,
		Events: timeline,
		Logger: d.Logger,
		Now:    d.Now,
	})
	sessions := NewWashSessionService(WashSessionServiceConfig{
		Kiosks:      d.Kiosks,
		Programs:    d.Programs,
		Sessions:    d.Sessions,
		Controllers: d.Controllers,
		Queue:       queue,
		Tx:          d.Tx,
		Events:      timeline,
		Logger:      d.Logger,
		Now:         d.Now,
		EnableLocks: d.EnableLocks,
	})
	gateway := NewHeartbeatGateway(HeartbeatGatewayConfig{
		Kiosks:   d.Kiosks,
		Registry: registry,
		Queue:    queue,
		Sessions: sessions,
		Logger:   d.Logger,
		Now:      d.Now,
	})
	topups := NewTopUpService(TopUpServiceConfig{
		Kiosks:      d.Kiosks,
		Payments:    d.Payments,
		Queue:       queue,
		Tx:          d.Tx,
		Events:      timeline,
		Logger:      d.Logger,
		Now:         d.Now,
		EnableLocks: d.EnableLocks,
	})
	return &Set{
		Registry: registry,
		Queue:    queue,
		Gateway:  gateway,
		Sessions: sessions,
		TopUps:   topups,
		Timeline: timeline,
	}
}
