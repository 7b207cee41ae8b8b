package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"parkgate/backend/services/parking-service/internal/http/middleware"
	"parkgate/backend/services/parking-service/internal/models"
	"parkgate/backend/services/parking-service/internal/repository"
)

// PlateHandlers manages the caller's registered license plates. The plate
// registry is what scopes session visibility for non-manager users.
type PlateHandlers struct {
	plates *repository.PlateRepository
	logger *zap.Logger
}

func NewPlateHandlers(plates *repository.PlateRepository, logger *zap.Logger) *PlateHandlers {
	return &PlateHandlers{plates: plates, logger: logger}
}

type registerPlateRequest struct {
	LicensePlate string `json:"license_plate"`
}

func (h *PlateHandlers) Register(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFrom(r.Context())

	var req registerPlateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	plate := strings.ToUpper(strings.TrimSpace(req.LicensePlate))
	if plate == "" {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "license_plate is required")
		return
	}

	record := &models.UserPlate{UserID: claims.UserID, LicensePlate: plate}
	if err := h.plates.Register(r.Context(), record); err != nil {
		h.logger.Error("plate registration failed", zap.String("plate", plate), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "failed to register plate")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"license_plate": plate})
}

func (h *PlateHandlers) ListMine(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFrom(r.Context())

	plates, err := h.plates.GetByUser(r.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("listing plates failed", zap.Int64("user_id", claims.UserID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "failed to list plates")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"plates": plates})
}
