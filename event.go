package storefront

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"gofalre.io/storefront/models"
	"gofalre.io/storefront/models/enum"
)

// EventHandler reacts to one class of session event.
type EventHandler func(context.Context, *models.SessionEvent) error

// EventManager subscribes to the session bus and routes credential
// notifications published by other devices or by the backend (the
// out-of-band counterpart to an explicit logout).
type EventManager struct {
	natsConn *nats.Conn
	handlers map[enum.SessionEventType]EventHandler
	logger   *zap.Logger
}

func NewEventManager(natsConn *nats.Conn, logger *zap.Logger) *EventManager {
	return &EventManager{
		natsConn: natsConn,
		handlers: make(map[enum.SessionEventType]EventHandler),
		logger:   logger,
	}
}

func (em *EventManager) RegisterHandler(eventType enum.SessionEventType, handler EventHandler) {
	em.handlers[eventType] = handler
}

func (em *EventManager) GetHandler(eventType enum.SessionEventType) (EventHandler, bool) {
	handler, exists := em.handlers[eventType]
	return handler, exists
}

func (em *EventManager) SubscribeToEvents(wp *WorkerPool) error {
	_, err := em.natsConn.Subscribe("session.event.>", func(msg *nats.Msg) {
		var event models.SessionEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			em.logger.Error("Failed to unmarshal session event", zap.Error(err))
			return
		}

		wp.Submit(context.Background(), &event)
	})

	return err
}
