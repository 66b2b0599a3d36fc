package handlers

import (
	"net/http"

	"github.com/username/subwatch/backend/src/database"
	"github.com/username/subwatch/backend/src/logger"
	"github.com/username/subwatch/backend/src/model"
	"github.com/username/subwatch/backend/src/services"
	"github.com/username/subwatch/backend/src/utils"
)

type SubscriptionHandler struct {
	detectionService services.DetectionService
}

func NewSubscriptionHandler(detectionService services.DetectionService) *SubscriptionHandler {
	return &SubscriptionHandler{detectionService: detectionService}
}

// HandleGetSubscriptions returns the user's active detected
// subscriptions, served from the report cache when warm.
func (h *SubscriptionHandler) HandleGetSubscriptions(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	subs, err := h.detectionService.GetUserSubscriptions(userID)
	if err != nil {
		logger.L.Error("Failed to load subscriptions", "userID", userID, "error", err)
		utils.SendJSONError(w, "failed to load subscriptions", http.StatusInternalServerError)
		return
	}
	if subs == nil {
		subs = []model.Subscription{}
	}
	utils.SendJSON(w, subs, http.StatusOK)
}

// HandleGetPriceChanges lists recorded price changes for the user's
// subscriptions, newest first.
func (h *SubscriptionHandler) HandleGetPriceChanges(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	changes, err := model.GetPriceChangesByUser(database.DB, userID)
	if err != nil {
		logger.L.Error("Failed to load price changes", "userID", userID, "error", err)
		utils.SendJSONError(w, "failed to load price changes", http.StatusInternalServerError)
		return
	}
	if changes == nil {
		changes = []model.PriceChange{}
	}
	utils.SendJSON(w, changes, http.StatusOK)
}

// HandleGetAnomalies lists flagged out-of-pattern charges.
func (h *SubscriptionHandler) HandleGetAnomalies(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	anomalies, err := model.GetAnomaliesByUser(database.DB, userID)
	if err != nil {
		logger.L.Error("Failed to load anomalies", "userID", userID, "error", err)
		utils.SendJSONError(w, "failed to load anomalies", http.StatusInternalServerError)
		return
	}
	if anomalies == nil {
		anomalies = []model.Anomaly{}
	}
	utils.SendJSON(w, anomalies, http.StatusOK)
}
