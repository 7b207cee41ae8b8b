package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"parkgate/backend/services/gate-server/internal/gate"
)

// OpenHandler serves the internal gate actuation endpoint called by the
// parking service during a session saga.
type OpenHandler struct {
	dispatcher *gate.Dispatcher
	logger     *zap.Logger
}

func NewOpenHandler(dispatcher *gate.Dispatcher, logger *zap.Logger) *OpenHandler {
	return &OpenHandler{dispatcher: dispatcher, logger: logger}
}

type openRequest struct {
	LotID        int64  `json:"lot_id"`
	LicensePlate string `json:"license_plate"`
}

func (h *OpenHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.LotID <= 0 || req.LicensePlate == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "lot_id and license_plate are required"})
		return
	}

	err := h.dispatcher.Open(r.Context(), req.LotID, req.LicensePlate)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"status": "Opened"})
	case errors.Is(err, gate.ErrNoController):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "no controller connected for lot"})
	case errors.Is(err, gate.ErrAckTimeout):
		writeJSON(w, http.StatusGatewayTimeout, map[string]string{"error": "controller did not confirm in time"})
	case errors.Is(err, gate.ErrGateFault):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
	default:
		h.logger.Error("open command failed", zap.Int64("lot_id", req.LotID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "gate command failed"})
	}
}

// Status reports whether a controller is connected for the lot.
func (h *OpenHandler) Status(w http.ResponseWriter, r *http.Request) {
	lotID, ok := parseLotID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "lot_id must be a positive integer"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"connected": h.dispatcher.Connected(lotID)})
}

func parseLotID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("lotID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
