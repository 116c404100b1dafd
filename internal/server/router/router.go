package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agrocampo/campo-backend/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(webhook *handlers.WebhookHandler, loads *handlers.LoadHandler, recat *handlers.RecategorizationHandler, farms *handlers.FarmHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/webhook", webhook.Verify)
	r.POST("/webhook", webhook.Receive)
	r.POST("/send-message", webhook.SendMessage)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.GET("/farms", farms.ListFarms)

		farm := api.Group("/farms/:farmID")
		{
			farm.GET("/pastures", farms.ListPastures)
			farm.POST("/pastures", farms.CreatePasture)
			farm.GET("/pastures/:pastureID/lots", farms.ListAnimalLots)
			farm.POST("/pastures/:pastureID/lots", farms.CreateAnimalLot)
			farm.GET("/pastures/:pastureID/load", loads.GetPastureLoad)

			farm.GET("/load", loads.GetFarmLoad)
			farm.GET("/ug-evolution", loads.GetEvolution)

			farm.GET("/weight-table", farms.GetWeightTable)
			farm.PUT("/weight-table", farms.PutWeightOverride)

			farm.POST("/recategorization/preview", recat.Preview)
			farm.POST("/recategorization/commit", recat.Commit)
			farm.POST("/recategorization/split", recat.Split)
			farm.GET("/recategorization/config", recat.GetConfig)
			farm.PUT("/recategorization/config", recat.PutConfig)
			farm.GET("/recategorization/events", recat.ListEvents)
		}
	}

	internal := r.Group("/internal")
	{
		internal.POST("/capture-load", loads.TriggerCapture)
		internal.POST("/recategorize-annual", recat.TriggerAnnual)
	}

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
