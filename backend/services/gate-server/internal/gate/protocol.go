package gate

import (
	"encoding/json"
	"fmt"
)

// Frames are single-line JSON objects discriminated by a type field. The
// server sends "open"; controllers answer with "ack".
const (
	frameOpen = "open"
	frameAck  = "ack"
)

type openFrame struct {
	Type         string `json:"type"`
	CommandID    string `json:"command_id"`
	LicensePlate string `json:"license_plate"`
}

type ackFrame struct {
	Type      string `json:"type"`
	CommandID string `json:"command_id"`
	Status    string `json:"status"`
	Detail    string `json:"detail,omitempty"`
}

const ackStatusOpened = "opened"

func encodeOpenCommand(commandID, licensePlate string) ([]byte, error) {
	return json.Marshal(openFrame{
		Type:         frameOpen,
		CommandID:    commandID,
		LicensePlate: licensePlate,
	})
}

// DecodeAck parses an inbound controller frame.
func DecodeAck(raw []byte) (Ack, error) {
	var frame ackFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return Ack{}, fmt.Errorf("gate: decode frame: %w", err)
	}
	if frame.Type != frameAck {
		return Ack{}, fmt.Errorf("gate: unexpected frame type %q", frame.Type)
	}
	if frame.CommandID == "" {
		return Ack{}, fmt.Errorf("gate: ack without command_id")
	}
	return Ack{
		CommandID: frame.CommandID,
		Opened:    frame.Status == ackStatusOpened,
		Detail:    frame.Detail,
	}, nil
}
