package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/ivey1207/supperapp/internal/domain"
	"github.com/ivey1207/supperapp/internal/infrastructure/logger"
	"github.com/ivey1207/supperapp/internal/transport/http/dto"
)

const streamPingInterval = 30 * time.Second

type TimelineReader interface {
	Recent(ctx context.Context, limit int) ([]domain.TimelineEvent, error)
	ForResource(ctx context.Context, resourceType, resourceID string) ([]domain.TimelineEvent, error)
}

type EventSubscriber interface {
	Subscribe() (<-chan domain.TimelineEvent, func())
}

type TimelineHandler struct {
	reader TimelineReader
	events EventSubscriber
	logger *logger.Logger
}

func NewTimelineHandler(reader TimelineReader, events EventSubscriber, logger *logger.Logger) *TimelineHandler {
	return &TimelineHandler{reader: reader, events: events, logger: logger}
}

func (h *TimelineHandler) GetEvents(c *fiber.Ctx) error {
	rtype := strings.TrimSpace(c.Query("resource_type"))
	rid := strings.TrimSpace(c.Query("resource_id"))
	if rtype != "" || rid != "" {
		if rtype == "" || rid == "" {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "resource_type and resource_id go together"})
		}
		events, err := h.reader.ForResource(c.UserContext(), rtype, rid)
		if err != nil {
			return err
		}
		return c.JSON(events)
	}
	events, err := h.reader.Recent(c.UserContext(), c.QueryInt("limit", 50))
	if err != nil {
		return err
	}
	return c.JSON(events)
}

// Stream pushes every published timeline event to the socket as JSON until
// the client goes away.
func (h *TimelineHandler) Stream(c *websocket.Conn) {
	events, unsubscribe := h.events.Subscribe()
	defer unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.logger.Infow("event_stream_opened", "remote", c.RemoteAddr().String())
	defer h.logger.Infow("event_stream_closed", "remote", c.RemoteAddr().String())

	ping := time.NewTicker(streamPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := c.WriteJSON(event); err != nil {
				h.logger.Warnw("event_stream_write_failed", "error", err)
				return
			}
		case <-ping.C:
			if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
