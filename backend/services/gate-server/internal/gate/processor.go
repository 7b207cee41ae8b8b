package gate

import (
	"context"

	"go.uber.org/zap"
)

// AckProcessor feeds inbound controller frames into the dispatcher.
type AckProcessor struct {
	dispatcher *Dispatcher
	logger     *zap.Logger
}

func NewAckProcessor(dispatcher *Dispatcher, logger *zap.Logger) *AckProcessor {
	return &AckProcessor{dispatcher: dispatcher, logger: logger}
}

func (p *AckProcessor) Process(_ context.Context, lotID int64, raw []byte) {
	ack, err := DecodeAck(raw)
	if err != nil {
		p.logger.Warn("dropping malformed frame", zap.Int64("lot_id", lotID), zap.Error(err))
		return
	}
	p.dispatcher.HandleAck(ack)
}
