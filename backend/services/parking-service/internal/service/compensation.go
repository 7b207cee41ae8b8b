package service

import (
	"context"

	"go.uber.org/zap"

	"parkgate/backend/services/parking-service/internal/monitoring"
)

// compensation is the undo action for one committed saga step.
type compensation struct {
	step string
	undo func(ctx context.Context) error
}

// compensationStack collects undo actions as saga steps commit. On a later
// failure the stack runs in reverse order. Undo failures are logged and
// swallowed; there is no second-level recovery.
type compensationStack struct {
	operation string
	logger    *zap.Logger
	items     []compensation
}

func newCompensationStack(operation string, logger *zap.Logger) *compensationStack {
	return &compensationStack{operation: operation, logger: logger}
}

func (c *compensationStack) push(step string, undo func(ctx context.Context) error) {
	c.items = append(c.items, compensation{step: step, undo: undo})
}

func (c *compensationStack) rollback(ctx context.Context) {
	for i := len(c.items) - 1; i >= 0; i-- {
		item := c.items[i]
		monitoring.CompensationRun(c.operation, item.step)
		c.logger.Warn("running compensation",
			zap.String("operation", c.operation),
			zap.String("step", item.step))
		if err := item.undo(ctx); err != nil {
			c.logger.Warn("compensation failed",
				zap.String("operation", c.operation),
				zap.String("step", item.step),
				zap.Error(err))
		}
	}
	c.items = nil
}
