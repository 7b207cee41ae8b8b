package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"parkgate/backend/services/parking-service/internal/auth"
	"parkgate/backend/services/parking-service/internal/http/middleware"
	"parkgate/backend/services/parking-service/internal/models"
	"parkgate/backend/services/parking-service/internal/service"
)

// SessionHandlers serves the session lifecycle endpoints.
type SessionHandlers struct {
	sessions *service.SessionsService
	logger   *zap.Logger
}

func NewSessionHandlers(sessions *service.SessionsService, logger *zap.Logger) *SessionHandlers {
	return &SessionHandlers{sessions: sessions, logger: logger}
}

type startSessionRequest struct {
	LotID           int64           `json:"lot_id"`
	LicensePlate    string          `json:"license_plate"`
	CardToken       string          `json:"card_token"`
	EstimatedAmount decimal.Decimal `json:"estimated_amount"`
	SimulateDecline bool            `json:"simulate_decline"`
}

func (h *SessionHandlers) Start(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.LotID <= 0 || req.LicensePlate == "" {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "lot_id and license_plate are required")
		return
	}

	claims, _ := middleware.ClaimsFrom(r.Context())
	result := h.sessions.StartSession(r.Context(), service.StartSessionInput{
		LotID:           req.LotID,
		LicensePlate:    req.LicensePlate,
		CardToken:       req.CardToken,
		EstimatedAmount: req.EstimatedAmount,
		RequestedBy:     strconv.FormatInt(claims.UserID, 10),
		SimulateDecline: req.SimulateDecline,
	})

	switch res := result.(type) {
	case service.StartSuccess:
		writeJSON(w, http.StatusCreated, map[string]any{
			"status":          "Started",
			"session_id":      res.Session.ID,
			"lot_id":          res.Session.LotID,
			"license_plate":   res.Session.LicensePlate,
			"started_at":      res.Session.Started,
			"payment_status":  res.Session.PaymentStatus,
			"available_spots": res.AvailableSpots,
		})
	case service.StartLotNotFound:
		writeError(w, http.StatusNotFound, "LOT_NOT_FOUND", "parking lot not found")
	case service.StartLotFull:
		writeError(w, http.StatusConflict, "LOT_FULL", "no available spots")
	case service.StartAlreadyActive:
		writeError(w, http.StatusConflict, "ACTIVE_SESSION_EXISTS", "an active session already exists for this plate")
	case service.StartPreAuthFailed:
		writeError(w, http.StatusPaymentRequired, "PAYMENT_DECLINED", res.Reason)
	case service.StartError:
		writeError(w, http.StatusInternalServerError, "INTERNAL", res.Message)
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL", "unexpected result")
	}
}

type stopSessionRequest struct {
	LicensePlate string `json:"license_plate"`
	CardToken    string `json:"card_token"`
}

func (h *SessionHandlers) Stop(w http.ResponseWriter, r *http.Request) {
	var req stopSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.LicensePlate == "" {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "license_plate is required")
		return
	}

	result := h.sessions.StopSession(r.Context(), service.StopSessionInput{
		LicensePlate: req.LicensePlate,
		CardToken:    req.CardToken,
	})

	switch res := result.(type) {
	case service.StopSuccess:
		reference, err := service.TransactionValidationToken()
		if err != nil {
			h.logger.Warn("transaction reference generation failed", zap.Error(err))
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":        "Stopped",
			"session_id":    res.Session.ID,
			"license_plate": res.Session.LicensePlate,
			"stopped_at":    res.Session.Stopped,
			"amount":        res.Amount,
			"payment_hash": service.PaymentHash(
				strconv.FormatInt(res.Session.ID, 10), res.Session.LicensePlate),
			"transaction_reference": reference,
		})
	case service.StopPlateNotFound:
		writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "no active session for this plate")
	case service.StopAlreadyStopped:
		writeError(w, http.StatusBadRequest, "ALREADY_STOPPED", "session already stopped")
	case service.StopPaymentFailed:
		writeError(w, http.StatusPaymentRequired, "PAYMENT_DECLINED", res.Reason)
	case service.StopError:
		writeError(w, http.StatusInternalServerError, "INTERNAL", res.Message)
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL", "unexpected result")
	}
}

// LotSessions lists the sessions of a lot visible to the caller. Managers see
// every session, other users only those tied to a plate they held at the time.
func (h *SessionHandlers) LotSessions(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFrom(r.Context())
	lotID, ok := pathID(w, r, "lotID")
	if !ok {
		return
	}

	sessions, err := h.sessions.AuthorizedSessions(r.Context(), claims.UserID, lotID, claims.CanManageSessions)
	if err != nil {
		h.logger.Error("listing lot sessions failed", zap.Int64("lot_id", lotID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []models.ParkingSession{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (h *SessionHandlers) LotSession(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFrom(r.Context())
	lotID, ok := pathID(w, r, "lotID")
	if !ok {
		return
	}
	sessionID, ok := pathID(w, r, "sessionID")
	if !ok {
		return
	}

	result := h.sessions.AuthorizedSession(r.Context(), claims.UserID, lotID, sessionID, claims.CanManageSessions)
	switch res := result.(type) {
	case service.GetSuccess:
		writeJSON(w, http.StatusOK, res.Session)
	case service.GetForbidden:
		writeError(w, http.StatusForbidden, "FORBIDDEN", "session belongs to another user")
	case service.GetNotFound:
		writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "session not found")
	case service.GetError:
		writeError(w, http.StatusInternalServerError, "INTERNAL", res.Message)
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL", "unexpected result")
	}
}

func (h *SessionHandlers) DeleteLotSession(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireManager(w, r); !ok {
		return
	}
	lotID, ok := pathID(w, r, "lotID")
	if !ok {
		return
	}
	sessionID, ok := pathID(w, r, "sessionID")
	if !ok {
		return
	}

	// The session must actually live in the addressed lot.
	switch res := h.sessions.GetSessionByID(r.Context(), sessionID).(type) {
	case service.GetSuccess:
		if res.Session.LotID != lotID {
			writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "session not found")
			return
		}
	case service.GetNotFound:
		writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "session not found")
		return
	case service.GetError:
		writeError(w, http.StatusInternalServerError, "INTERNAL", res.Message)
		return
	}

	switch res := h.sessions.DeleteSession(r.Context(), sessionID).(type) {
	case service.DeleteSuccess:
		writeJSON(w, http.StatusOK, map[string]string{"status": "Deleted"})
	case service.DeleteNotFound:
		writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "session not found")
	case service.DeleteError:
		writeError(w, http.StatusInternalServerError, "INTERNAL", res.Message)
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL", "unexpected result")
	}
}

type updateSessionRequest struct {
	StoppedAt     *time.Time `json:"stopped_at"`
	PaymentStatus *string    `json:"payment_status"`
}

func (h *SessionHandlers) Update(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireManager(w, r); !ok {
		return
	}
	sessionID, ok := pathID(w, r, "sessionID")
	if !ok {
		return
	}

	var req updateSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	patch := models.SessionPatch{Stopped: req.StoppedAt}
	if req.PaymentStatus != nil {
		status, err := models.ParsePaymentStatus(*req.PaymentStatus)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_STATUS", err.Error())
			return
		}
		patch.PaymentStatus = &status
	}

	switch res := h.sessions.UpdateSession(r.Context(), sessionID, patch).(type) {
	case service.UpdateSuccess:
		writeJSON(w, http.StatusOK, res.Session)
	case service.UpdateNoChanges:
		writeJSON(w, http.StatusOK, map[string]string{"status": "NoChanges"})
	case service.UpdateNotFound:
		writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "session not found")
	case service.UpdateError:
		writeError(w, http.StatusBadRequest, "UPDATE_FAILED", res.Message)
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL", "unexpected result")
	}
}

// List serves GET /sessions. An optional status query filters by payment
// status; without it every session is returned.
func (h *SessionHandlers) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireManager(w, r); !ok {
		return
	}

	var result service.SessionListResult
	if status := r.URL.Query().Get("status"); status != "" {
		result = h.sessions.GetSessionsByStatus(r.Context(), status)
	} else {
		result = h.sessions.GetAllSessions(r.Context())
	}
	h.writeList(w, result)
}

func (h *SessionHandlers) Active(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireManager(w, r); !ok {
		return
	}
	h.writeList(w, h.sessions.GetActiveSessions(r.Context()))
}

type createSessionRequest struct {
	LotID        int64      `json:"lot_id"`
	LicensePlate string     `json:"license_plate"`
	Started      *time.Time `json:"started_at"`
}

// Create stores a session directly, bypassing payment and gate actuation.
// Used by operators to backfill records.
func (h *SessionHandlers) Create(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireManager(w, r); !ok {
		return
	}

	var req createSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.LotID <= 0 || req.LicensePlate == "" {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "lot_id and license_plate are required")
		return
	}

	input := service.CreateSessionInput{LotID: req.LotID, LicensePlate: req.LicensePlate}
	if req.Started != nil {
		input.Started = *req.Started
	}

	switch res := h.sessions.CreateSession(r.Context(), input).(type) {
	case service.CreateSuccess:
		writeJSON(w, http.StatusCreated, res.Session)
	case service.CreateAlreadyExists:
		writeError(w, http.StatusConflict, "ACTIVE_SESSION_EXISTS", "an active session already exists for this plate")
	case service.CreateError:
		writeError(w, http.StatusInternalServerError, "INTERNAL", res.Message)
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL", "unexpected result")
	}
}

// ActiveByPlate returns the running session for one plate.
func (h *SessionHandlers) ActiveByPlate(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireManager(w, r); !ok {
		return
	}

	plate := r.PathValue("plate")
	if plate == "" {
		writeError(w, http.StatusBadRequest, "INVALID_PATH", "plate is required")
		return
	}

	switch res := h.sessions.GetActiveSessionByPlate(r.Context(), plate).(type) {
	case service.GetSuccess:
		writeJSON(w, http.StatusOK, res.Session)
	case service.GetNotFound:
		writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "no active session for this plate")
	case service.GetError:
		writeError(w, http.StatusInternalServerError, "INTERNAL", res.Message)
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL", "unexpected result")
	}
}

// ByPlate lists the full history of one plate.
func (h *SessionHandlers) ByPlate(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireManager(w, r); !ok {
		return
	}

	plate := r.PathValue("plate")
	if plate == "" {
		writeError(w, http.StatusBadRequest, "INVALID_PATH", "plate is required")
		return
	}

	h.writeList(w, h.sessions.GetSessionsByPlate(r.Context(), plate))
}

// Recent serves GET /sessions/recent?plate=..&within=24h.
func (h *SessionHandlers) Recent(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireManager(w, r); !ok {
		return
	}

	plate := r.URL.Query().Get("plate")
	if plate == "" {
		writeError(w, http.StatusBadRequest, "INVALID_QUERY", "plate is required")
		return
	}

	within := 24 * time.Hour
	if raw := r.URL.Query().Get("within"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "INVALID_QUERY", "within must be a positive duration")
			return
		}
		within = parsed
	}

	h.writeList(w, h.sessions.GetRecentSessionsByPlate(r.Context(), plate, within))
}

func (h *SessionHandlers) Count(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireManager(w, r); !ok {
		return
	}

	count, err := h.sessions.CountSessions(r.Context())
	if err != nil {
		h.logger.Error("counting sessions failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "failed to count sessions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (h *SessionHandlers) writeList(w http.ResponseWriter, result service.SessionListResult) {
	switch res := result.(type) {
	case service.ListSuccess:
		writeJSON(w, http.StatusOK, map[string]any{"sessions": res.Sessions})
	case service.ListNotFound:
		writeError(w, http.StatusNotFound, "NO_SESSIONS", "no sessions found")
	case service.ListInvalidInput:
		writeError(w, http.StatusBadRequest, "INVALID_QUERY", res.Reason)
	case service.ListError:
		writeError(w, http.StatusInternalServerError, "INTERNAL", res.Message)
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL", "unexpected result")
	}
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "INVALID_PATH", name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

func requireManager(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok || !claims.CanManageSessions {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "insufficient permissions")
		return nil, false
	}
	return claims, true
}
