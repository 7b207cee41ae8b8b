package gate

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"parkgate/backend/services/gate-server/internal/monitoring"
)

var idGenerator = generateID

var (
	// ErrNoController means no gate controller is connected for the lot.
	ErrNoController = errors.New("gate: no controller connected")
	// ErrAckTimeout means the controller did not confirm in time.
	ErrAckTimeout = errors.New("gate: ack timeout")
	// ErrGateFault means the controller reported a hardware fault.
	ErrGateFault = errors.New("gate: controller fault")
)

// Sender pushes a raw frame to a connected controller.
type Sender interface {
	Send(msg []byte)
}

// Ack is a controller's response to an open command.
type Ack struct {
	CommandID string
	Opened    bool
	Detail    string
}

// Dispatcher routes open commands to the controller of a lot and matches the
// acks coming back. One controller per lot; a reconnect replaces the old one.
type Dispatcher struct {
	mu          sync.Mutex
	controllers map[int64]Sender
	pending     map[string]chan Ack

	ackTimeout time.Duration
	logger     *zap.Logger
}

// NewDispatcher builds the dispatcher.
func NewDispatcher(ackTimeout time.Duration, logger *zap.Logger) *Dispatcher {
	if ackTimeout <= 0 {
		ackTimeout = 5 * time.Second
	}
	return &Dispatcher{
		controllers: make(map[int64]Sender),
		pending:     make(map[string]chan Ack),
		ackTimeout:  ackTimeout,
		logger:      logger,
	}
}

// Attach registers the controller for a lot, replacing any previous one.
func (d *Dispatcher) Attach(lotID int64, sender Sender) {
	d.mu.Lock()
	_, replaced := d.controllers[lotID]
	d.controllers[lotID] = sender
	d.mu.Unlock()

	if !replaced {
		monitoring.ControllerConnected(1)
	}
	d.logger.Info("gate controller attached", zap.Int64("lot_id", lotID))
}

// Detach removes the controller unless a newer one already took its place.
func (d *Dispatcher) Detach(lotID int64, sender Sender) {
	d.mu.Lock()
	removed := d.controllers[lotID] == sender
	if removed {
		delete(d.controllers, lotID)
	}
	d.mu.Unlock()

	if removed {
		monitoring.ControllerConnected(-1)
		d.logger.Info("gate controller detached", zap.Int64("lot_id", lotID))
	}
}

// Connected reports whether a controller is attached for the lot.
func (d *Dispatcher) Connected(lotID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.controllers[lotID]
	return ok
}

// Open sends an open command for the lot and blocks until the controller
// acks, the ack window elapses, or the context ends.
func (d *Dispatcher) Open(ctx context.Context, lotID int64, licensePlate string) error {
	d.mu.Lock()
	sender, ok := d.controllers[lotID]
	if !ok {
		d.mu.Unlock()
		return ErrNoController
	}

	commandID := idGenerator()
	ackCh := make(chan Ack, 1)
	d.pending[commandID] = ackCh
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		delete(d.pending, commandID)
		d.mu.Unlock()
	}()

	frame, err := encodeOpenCommand(commandID, licensePlate)
	if err != nil {
		return err
	}
	sender.Send(frame)
	d.logger.Info("open command sent",
		zap.Int64("lot_id", lotID),
		zap.String("command_id", commandID),
		zap.String("plate", licensePlate))

	timer := time.NewTimer(d.ackTimeout)
	defer timer.Stop()

	select {
	case ack := <-ackCh:
		if !ack.Opened {
			monitoring.OpenCommand("fault")
			return fmt.Errorf("%w: %s", ErrGateFault, ack.Detail)
		}
		monitoring.OpenCommand("ok")
		return nil
	case <-timer.C:
		monitoring.OpenCommand("timeout")
		return ErrAckTimeout
	case <-ctx.Done():
		monitoring.OpenCommand("cancelled")
		return ctx.Err()
	}
}

// HandleAck resolves the pending command the ack belongs to. Late or unknown
// acks are dropped.
func (d *Dispatcher) HandleAck(ack Ack) {
	d.mu.Lock()
	ch, ok := d.pending[ack.CommandID]
	if ok {
		delete(d.pending, ack.CommandID)
	}
	d.mu.Unlock()

	if !ok {
		d.logger.Warn("ack for unknown command", zap.String("command_id", ack.CommandID))
		return
	}
	ch <- ack
}

func generateID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}
