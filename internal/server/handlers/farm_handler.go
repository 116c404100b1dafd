package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/agrocampo/campo-backend/internal/domain/models"
	"github.com/agrocampo/campo-backend/internal/repository/mongodb"
)

// FarmHandler exposes the plain CRUD surface: farms, pastures, animal lots
// and weight-table overrides.
type FarmHandler struct {
	store  *mongodb.Repository
	logger *zap.Logger
}

// NewFarmHandler constructs the HTTP handler adapter.
func NewFarmHandler(store *mongodb.Repository, logger *zap.Logger) *FarmHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FarmHandler{store: store, logger: logger}
}

// ListFarms returns every tenant farm.
func (h *FarmHandler) ListFarms(c *gin.Context) {
	farms, err := h.store.ListFarms(c.Request.Context())
	if err != nil {
		h.logger.Error("failed listing farms", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list farms"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"farms": farms})
}

// ListPastures returns a farm's pastures.
func (h *FarmHandler) ListPastures(c *gin.Context) {
	farmID, ok := pathObjectID(c, "farmID")
	if !ok {
		return
	}

	if _, err := h.store.GetFarm(c.Request.Context(), farmID); err != nil {
		h.notFoundOrError(c, err, "farm not found")
		return
	}

	pastures, err := h.store.ListPastures(c.Request.Context(), farmID)
	if err != nil {
		h.logger.Error("failed listing pastures", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list pastures"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pastures": pastures})
}

type createPastureRequest struct {
	Name     string  `json:"name" binding:"required"`
	Hectares float64 `json:"hectares" binding:"required,gt=0"`
}

// CreatePasture adds a pasture to a farm.
func (h *FarmHandler) CreatePasture(c *gin.Context) {
	farmID, ok := pathObjectID(c, "farmID")
	if !ok {
		return
	}

	var req createPastureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if _, err := h.store.GetFarm(c.Request.Context(), farmID); err != nil {
		h.notFoundOrError(c, err, "farm not found")
		return
	}

	pasture, err := h.store.CreatePasture(c.Request.Context(), models.Pasture{
		FarmID:   farmID,
		Name:     req.Name,
		Hectares: req.Hectares,
	})
	if err != nil {
		h.logger.Error("failed creating pasture", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create pasture"})
		return
	}

	c.JSON(http.StatusCreated, pasture)
}

// ListAnimalLots returns the animal lots of one pasture.
func (h *FarmHandler) ListAnimalLots(c *gin.Context) {
	farmID, ok := pathObjectID(c, "farmID")
	if !ok {
		return
	}
	pastureID, ok := pathObjectID(c, "pastureID")
	if !ok {
		return
	}

	if _, err := h.store.GetPasture(c.Request.Context(), farmID, pastureID); err != nil {
		h.notFoundOrError(c, err, "pasture not found")
		return
	}

	lots, err := h.store.ListAnimalLotsByPasture(c.Request.Context(), pastureID)
	if err != nil {
		h.logger.Error("failed listing animal lots", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list animal lots"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"lots": lots})
}

type createLotRequest struct {
	Category   string `json:"category" binding:"required"`
	Count      int    `json:"count" binding:"required,gt=0"`
	IntakeDate string `json:"intake_date"`
}

// CreateAnimalLot registers a new animal lot in a pasture.
func (h *FarmHandler) CreateAnimalLot(c *gin.Context) {
	farmID, ok := pathObjectID(c, "farmID")
	if !ok {
		return
	}
	pastureID, ok := pathObjectID(c, "pastureID")
	if !ok {
		return
	}

	var req createLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	intakeDate := time.Now().UTC().Truncate(24 * time.Hour)
	if req.IntakeDate != "" {
		parsed, err := time.Parse(queryDateLayout, req.IntakeDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid intake_date, expected YYYY-MM-DD"})
			return
		}
		intakeDate = parsed
	}

	if _, err := h.store.GetPasture(c.Request.Context(), farmID, pastureID); err != nil {
		h.notFoundOrError(c, err, "pasture not found")
		return
	}

	lot := models.AnimalLot{
		ID:         primitive.NewObjectID(),
		FarmID:     farmID,
		PastureID:  pastureID,
		Category:   req.Category,
		Count:      req.Count,
		IntakeDate: intakeDate,
	}
	if err := h.store.InsertAnimalLot(c.Request.Context(), lot); err != nil {
		h.logger.Error("failed creating animal lot", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create animal lot"})
		return
	}

	c.JSON(http.StatusCreated, lot)
}

type weightOverrideRequest struct {
	Category string  `json:"category" binding:"required"`
	WeightKg float64 `json:"weight_kg" binding:"required,gt=0"`
}

// PutWeightOverride writes one per-farm category weight override.
func (h *FarmHandler) PutWeightOverride(c *gin.Context) {
	farmID, ok := pathObjectID(c, "farmID")
	if !ok {
		return
	}

	var req weightOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if _, err := h.store.GetFarm(c.Request.Context(), farmID); err != nil {
		h.notFoundOrError(c, err, "farm not found")
		return
	}

	override := models.WeightOverride{
		FarmID:   farmID,
		Category: req.Category,
		WeightKg: req.WeightKg,
	}
	if err := h.store.UpsertWeightOverride(c.Request.Context(), override); err != nil {
		h.logger.Error("failed saving weight override", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save weight override"})
		return
	}

	c.JSON(http.StatusOK, override)
}

// GetWeightTable returns a farm's effective weight override table.
func (h *FarmHandler) GetWeightTable(c *gin.Context) {
	farmID, ok := pathObjectID(c, "farmID")
	if !ok {
		return
	}

	if _, err := h.store.GetFarm(c.Request.Context(), farmID); err != nil {
		h.notFoundOrError(c, err, "farm not found")
		return
	}

	table, err := h.store.WeightOverrides(c.Request.Context(), farmID)
	if err != nil {
		h.logger.Error("failed loading weight overrides", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load weight table"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"overrides": table})
}

func (h *FarmHandler) notFoundOrError(c *gin.Context, err error, msg string) {
	if errors.Is(err, mongodb.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": msg})
		return
	}
	h.logger.Error("storage error", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
