package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agrocampo/campo-backend/internal/domain/models"
	"github.com/agrocampo/campo-backend/internal/repository/mongodb"
	"github.com/agrocampo/campo-backend/internal/service/recategorization"
)

// RecategorizationHandler exposes the manual recategorization operations
// and the out-of-band annual trigger.
type RecategorizationHandler struct {
	svc      *recategorization.Service
	store    *mongodb.Repository
	location *time.Location
	logger   *zap.Logger
}

// NewRecategorizationHandler constructs the HTTP handler adapter.
func NewRecategorizationHandler(svc *recategorization.Service, store *mongodb.Repository, location *time.Location, logger *zap.Logger) *RecategorizationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.UTC
	}
	return &RecategorizationHandler{svc: svc, store: store, location: location, logger: logger}
}

type batchRequest struct {
	Rules []models.BatchRule `json:"rules" binding:"required,min=1,dive"`
}

// Preview returns the lots a batch request would touch, without mutating.
func (h *RecategorizationHandler) Preview(c *gin.Context) {
	farmID, ok := pathObjectID(c, "farmID")
	if !ok {
		return
	}

	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if _, err := h.store.GetFarm(c.Request.Context(), farmID); err != nil {
		h.notFoundOrError(c, err, "farm not found")
		return
	}

	preview, err := h.svc.Preview(c.Request.Context(), farmID, req.Rules)
	if err != nil {
		h.logger.Error("recategorization preview failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "preview failed"})
		return
	}

	c.JSON(http.StatusOK, preview)
}

// Commit applies a batch request transactionally.
func (h *RecategorizationHandler) Commit(c *gin.Context) {
	farmID, ok := pathObjectID(c, "farmID")
	if !ok {
		return
	}

	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if _, err := h.store.GetFarm(c.Request.Context(), farmID); err != nil {
		h.notFoundOrError(c, err, "farm not found")
		return
	}

	result, err := h.svc.Commit(c.Request.Context(), farmID, req.Rules)
	if err != nil {
		h.logger.Error("recategorization commit failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "commit failed, no changes were applied"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Split divides a mixed-sex cohort category into male and female lots.
func (h *RecategorizationHandler) Split(c *gin.Context) {
	farmID, ok := pathObjectID(c, "farmID")
	if !ok {
		return
	}

	var req models.SplitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if _, err := h.store.GetFarm(c.Request.Context(), farmID); err != nil {
		h.notFoundOrError(c, err, "farm not found")
		return
	}

	result, err := h.svc.Split(c.Request.Context(), farmID, req)
	switch {
	case errors.Is(err, recategorization.ErrSplitMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, recategorization.ErrLotNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.logger.Error("recategorization split failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "split failed, no changes were applied"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// TriggerAnnual runs the annual pass out of band. The service refuses any
// date other than January 1st, so a stray invocation is harmless.
func (h *RecategorizationHandler) TriggerAnnual(c *gin.Context) {
	asOf := time.Now().In(h.location)
	if raw := c.Query("as_of"); raw != "" {
		parsed, err := time.ParseInLocation(queryDateLayout, raw, h.location)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid as_of date, expected YYYY-MM-DD"})
			return
		}
		asOf = parsed
	}

	result, err := h.svc.RunAnnualPass(c.Request.Context(), asOf)
	if errors.Is(err, recategorization.ErrNotTriggerDate) {
		c.JSON(http.StatusConflict, gin.H{"error": "annual recategorization only runs on january 1st"})
		return
	}
	if err != nil {
		h.logger.Error("annual recategorization failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "annual pass failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetConfig returns a farm's automatic recategorization flags.
func (h *RecategorizationHandler) GetConfig(c *gin.Context) {
	farmID, ok := pathObjectID(c, "farmID")
	if !ok {
		return
	}

	cfg, err := h.store.GetRecategorizationConfig(c.Request.Context(), farmID)
	if err != nil {
		h.notFoundOrError(c, err, "config not found")
		return
	}
	if cfg == nil {
		cfg = &models.RecategorizationConfig{FarmID: farmID}
	}

	c.JSON(http.StatusOK, cfg)
}

type configRequest struct {
	BovineActive bool `json:"bovine_active"`
	OvineActive  bool `json:"ovine_active"`
}

// PutConfig writes a farm's automatic recategorization flags.
func (h *RecategorizationHandler) PutConfig(c *gin.Context) {
	farmID, ok := pathObjectID(c, "farmID")
	if !ok {
		return
	}

	var req configRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if _, err := h.store.GetFarm(c.Request.Context(), farmID); err != nil {
		h.notFoundOrError(c, err, "farm not found")
		return
	}

	cfg := models.RecategorizationConfig{
		FarmID:       farmID,
		BovineActive: req.BovineActive,
		OvineActive:  req.OvineActive,
	}
	if err := h.store.UpsertRecategorizationConfig(c.Request.Context(), cfg); err != nil {
		h.logger.Error("failed saving recategorization config", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save config"})
		return
	}

	c.JSON(http.StatusOK, cfg)
}

// ListEvents returns a farm's recategorization audit trail.
func (h *RecategorizationHandler) ListEvents(c *gin.Context) {
	farmID, ok := pathObjectID(c, "farmID")
	if !ok {
		return
	}

	events, err := h.store.ListEvents(c.Request.Context(), farmID, 200)
	if err != nil {
		h.logger.Error("failed listing events", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (h *RecategorizationHandler) notFoundOrError(c *gin.Context, err error, msg string) {
	if errors.Is(err, mongodb.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": msg})
		return
	}
	h.logger.Error("storage error", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
