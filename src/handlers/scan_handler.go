package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/username/subwatch/backend/src/database"
	"github.com/username/subwatch/backend/src/logger"
	"github.com/username/subwatch/backend/src/model"
	"github.com/username/subwatch/backend/src/providers"
	"github.com/username/subwatch/backend/src/services"
	"github.com/username/subwatch/backend/src/utils"
)

type ScanHandler struct {
	scanService *services.ScanService
	source      providers.TransactionSource
}

func NewScanHandler(scanService *services.ScanService, source providers.TransactionSource) *ScanHandler {
	return &ScanHandler{scanService: scanService, source: source}
}

// HandleTriggerScan enqueues a detection scan for the authenticated
// user. If one is already pending it is returned unchanged.
func (h *ScanHandler) HandleTriggerScan(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	scan, err := h.scanService.TriggerScan(userID)
	if err != nil {
		logger.L.Error("Failed to enqueue scan", "userID", userID, "error", err)
		utils.SendJSONError(w, "failed to schedule scan", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, scan, http.StatusAccepted)
}

// HandleGetScan returns the status of one scan, so clients can poll
// for completion or a failure reason.
func (h *ScanHandler) HandleGetScan(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	scanID := chi.URLParam(r, "scanID")
	scan, err := h.scanService.ScanStatus(scanID)
	if err != nil {
		if errors.Is(err, model.ErrScanNotFound) {
			utils.SendJSONError(w, "scan not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to load scan", "scanID", scanID, "error", err)
		utils.SendJSONError(w, "failed to load scan", http.StatusInternalServerError)
		return
	}
	if scan.UserID != userID {
		utils.SendJSONError(w, "scan not found", http.StatusNotFound)
		return
	}
	utils.SendJSON(w, scan, http.StatusOK)
}

type linkAccountRequest struct {
	ProviderAccountID string `json:"provider_account_id"`
	Institution       string `json:"institution"`
	Currency          string `json:"currency"`
}

// HandleLinkAccount stores a provider account reference for the user.
// The consent handshake that produced the reference happens outside
// this service.
func (h *ScanHandler) HandleLinkAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req linkAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProviderAccountID == "" {
		utils.SendJSONError(w, "provider_account_id is required", http.StatusBadRequest)
		return
	}

	account := &model.BankAccount{
		UserID:            userID,
		ProviderAccountID: req.ProviderAccountID,
		Institution:       req.Institution,
		Currency:          req.Currency,
	}
	if err := account.Create(database.DB); err != nil {
		logger.L.Error("Failed to link account", "userID", userID, "error", err)
		utils.SendJSONError(w, "failed to link account", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, account, http.StatusCreated)
}

// HandleProviderDiagnostics exposes the adapter's health view.
func (h *ScanHandler) HandleProviderDiagnostics(w http.ResponseWriter, r *http.Request) {
	if _, ok := GetUserIDFromContext(r.Context()); !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	diag, err := h.source.Diagnostics(r.Context())
	if err != nil {
		logger.L.Error("Provider diagnostics failed", "error", err)
		utils.SendJSONError(w, "provider diagnostics failed", http.StatusBadGateway)
		return
	}
	utils.SendJSON(w, diag, http.StatusOK)
}
