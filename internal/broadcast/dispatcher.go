// Package broadcast delivers one message to every registered destination.
package broadcast

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/chatrelay/internal/domain"
	"github.com/MrSnakeDoc/chatrelay/internal/logger"
)

// Sender delivers a text message to one chat.
type Sender interface {
	SendText(ctx context.Context, chatID, text string) error
}

// Remover prunes a destination from the registry.
type Remover interface {
	Remove(ctx context.Context, id string) bool
}

// Dispatcher sends sequentially, one call per destination, and never
// stops early: every destination is attempted exactly once.
type Dispatcher struct {
	sender   Sender
	remover  Remover
	classify Classifier
	log      logger.Logger
}

// New builds a dispatcher. A nil classifier falls back to ClassifyByMessage.
func New(sender Sender, remover Remover, classify Classifier, log logger.Logger) *Dispatcher {
	if classify == nil {
		classify = ClassifyByMessage
	}
	return &Dispatcher{
		sender:   sender,
		remover:  remover,
		classify: classify,
		log:      log.With(logger.String("component", "broadcast")),
	}
}

// SendAll attempts delivery of message to each id in order.
func (d *Dispatcher) SendAll(ctx context.Context, message string, ids []string) domain.BroadcastResult {
	result := domain.BroadcastResult{TotalChats: len(ids)}
	if len(ids) == 0 {
		d.log.Info("no destinations registered, nothing to send")
		return result
	}

	start := time.Now()
	var pruned, failed int

	for _, id := range ids {
		err := d.sender.SendText(ctx, id, message)
		if err == nil {
			result.SentCount++
			continue
		}

		failed++
		class := d.classify(err)
		if class == FailurePermanent {
			d.log.Warn("destination gone, removing from registry",
				logger.String("chat_id", id),
				logger.Error(err))
			if d.remover.Remove(ctx, id) {
				pruned++
			}
			continue
		}

		d.log.Warn("failed to send to destination",
			logger.String("chat_id", id),
			logger.String("failure", class.String()),
			logger.Error(err))
	}

	d.log.Info("broadcast finished",
		logger.Int("sent", result.SentCount),
		logger.Int("failed", failed),
		logger.Int("pruned", pruned),
		logger.Int("total", result.TotalChats),
		logger.Duration("duration", time.Since(start)))

	return result
}
