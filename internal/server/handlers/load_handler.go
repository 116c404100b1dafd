package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/agrocampo/campo-backend/internal/repository/mongodb"
	"github.com/agrocampo/campo-backend/internal/service/load"
)

const queryDateLayout = "2006-01-02"

// LoadHandler exposes the grazing-load endpoints: current aggregates, the
// ug-evolution series and the manual capture trigger.
type LoadHandler struct {
	svc      *load.Service
	store    *mongodb.Repository
	location *time.Location
	logger   *zap.Logger
}

// NewLoadHandler constructs the HTTP handler adapter.
func NewLoadHandler(svc *load.Service, store *mongodb.Repository, location *time.Location, logger *zap.Logger) *LoadHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.UTC
	}
	return &LoadHandler{svc: svc, store: store, location: location, logger: logger}
}

// GetEvolution reconstructs the daily UG series of a farm over a date range.
func (h *LoadHandler) GetEvolution(c *gin.Context) {
	farmID, ok := pathObjectID(c, "farmID")
	if !ok {
		return
	}

	from, err := time.ParseInLocation(queryDateLayout, c.Query("from"), h.location)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or missing from date, expected YYYY-MM-DD"})
		return
	}
	to, err := time.ParseInLocation(queryDateLayout, c.Query("to"), h.location)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or missing to date, expected YYYY-MM-DD"})
		return
	}

	if _, err := h.store.GetFarm(c.Request.Context(), farmID); err != nil {
		h.notFoundOrError(c, err, "farm not found")
		return
	}

	evolution, err := h.svc.ReconstructSeries(c.Request.Context(), farmID, from, to)
	if err != nil {
		h.logger.Error("failed reconstructing ug series", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reconstruct series"})
		return
	}

	c.JSON(http.StatusOK, evolution)
}

// GetFarmLoad returns the farm's current total UG.
func (h *LoadHandler) GetFarmLoad(c *gin.Context) {
	farmID, ok := pathObjectID(c, "farmID")
	if !ok {
		return
	}

	if _, err := h.store.GetFarm(c.Request.Context(), farmID); err != nil {
		h.notFoundOrError(c, err, "farm not found")
		return
	}

	ug, err := h.svc.AggregateFarmUG(c.Request.Context(), farmID)
	if err != nil {
		h.logger.Error("failed aggregating farm load", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to aggregate load"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"farm_id": farmID.Hex(), "total_ug": ug})
}

// GetPastureLoad returns one pasture's current UG and UG per hectare.
func (h *LoadHandler) GetPastureLoad(c *gin.Context) {
	farmID, ok := pathObjectID(c, "farmID")
	if !ok {
		return
	}
	pastureID, ok := pathObjectID(c, "pastureID")
	if !ok {
		return
	}

	pasture, err := h.store.GetPasture(c.Request.Context(), farmID, pastureID)
	if err != nil {
		h.notFoundOrError(c, err, "pasture not found")
		return
	}

	ug, err := h.svc.AggregateUG(c.Request.Context(), farmID, pastureID)
	if err != nil {
		h.logger.Error("failed aggregating pasture load", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to aggregate load"})
		return
	}

	resp := gin.H{
		"pasture_id": pasture.ID.Hex(),
		"name":       pasture.Name,
		"hectares":   pasture.Hectares,
		"total_ug":   ug,
	}
	if pasture.Hectares > 0 {
		resp["ug_per_hectare"] = load.Round2(ug / pasture.Hectares)
	}

	c.JSON(http.StatusOK, resp)
}

// TriggerCapture runs the daily capture job out of band. The job is
// idempotent by (pasture, date), so re-triggering is always safe.
func (h *LoadHandler) TriggerCapture(c *gin.Context) {
	result, err := h.svc.CaptureDailyLoad(c.Request.Context(), time.Now().In(h.location))
	if err != nil {
		h.logger.Error("manual load capture failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "capture failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *LoadHandler) notFoundOrError(c *gin.Context, err error, msg string) {
	if errors.Is(err, mongodb.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": msg})
		return
	}
	h.logger.Error("storage error", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// pathObjectID parses an ObjectID path parameter, replying 400 on failure.
func pathObjectID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return primitive.NilObjectID, false
	}
	return id, true
}
