package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/username/tradejournal/src/logger"
	"github.com/username/tradejournal/src/models"
	"github.com/username/tradejournal/src/services"
	"github.com/username/tradejournal/src/utils"
)

type TradesHandler struct {
	service *services.ProcessingService
}

func NewTradesHandler(service *services.ProcessingService) *TradesHandler {
	return &TradesHandler{service: service}
}

// HandleGetTrades runs (or serves the cached) processing pipeline and returns
// the completed trades with file metadata and stats. Supports ETag.
func (h *TradesHandler) HandleGetTrades(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ProcessAll()
	if err != nil {
		logger.L.Error("Error processing trades", "error", err)
		utils.SendJSONError(w, "An internal error occurred while processing trade files.", http.StatusInternalServerError)
		return
	}

	if result.Trades == nil {
		result.Trades = []models.CompletedTrade{}
	}

	w.Header().Set("Cache-Control", "no-cache, private")
	currentETag, etagErr := utils.GenerateETag(result)
	if etagErr == nil && currentETag != "" {
		quotedETag := fmt.Sprintf("%q", currentETag)
		w.Header().Set("ETag", quotedETag)
		for _, cETag := range strings.Split(r.Header.Get("If-None-Match"), ",") {
			if strings.TrimSpace(cETag) == quotedETag {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		logger.L.Error("Error encoding trades response", "error", err)
	}
}

// HandleVerifyTrades returns the same payload as HandleGetTrades plus the
// validation report.
func (h *TradesHandler) HandleVerifyTrades(w http.ResponseWriter, r *http.Request) {
	result, report, err := h.service.Verify()
	if err != nil {
		logger.L.Error("Error verifying trades", "error", err)
		utils.SendJSONError(w, "An internal error occurred while verifying trade data.", http.StatusInternalServerError)
		return
	}

	if result.Trades == nil {
		result.Trades = []models.CompletedTrade{}
	}

	response := struct {
		*services.ProcessingResult
		Validation models.ValidationReport `json:"validation"`
	}{result, report}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.L.Error("Error encoding verify response", "error", err)
	}
}

// HandleGetStoredTrades serves the last persisted trade snapshot from the
// journal table without re-running the pipeline.
func (h *TradesHandler) HandleGetStoredTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := h.service.StoredTrades()
	if err != nil {
		logger.L.Error("Error loading stored trades", "error", err)
		utils.SendJSONError(w, "An internal error occurred while reading stored trades.", http.StatusInternalServerError)
		return
	}
	if trades == nil {
		trades = []models.CompletedTrade{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"trades": trades,
		"count":  len(trades),
	}); err != nil {
		logger.L.Error("Error encoding stored trades response", "error", err)
	}
}
