package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/calder-labs/pushgate/internal/domain/intent"
	"github.com/calder-labs/pushgate/internal/obs"
	"github.com/calder-labs/pushgate/internal/vapid"
)

// Version is stamped via -ldflags at build time.
var Version = "dev"

type unsubscribeRequest struct {
	UserID   string `json:"userId"`
	Endpoint string `json:"endpoint"`
}

type notifyRequest struct {
	UserIDs []string        `json:"userIds"`
	Title   string          `json:"title"`
	Body    string          `json:"body"`
	Icon    string          `json:"icon"`
	Badge   string          `json:"badge"`
	Data    json.RawMessage `json:"data"`
	Tag     string          `json:"tag"`
}

func (r notifyRequest) payload() intent.Payload {
	return intent.Payload{
		Title: r.Title,
		Body:  r.Body,
		Icon:  r.Icon,
		Badge: r.Badge,
		Data:  r.Data,
		Tag:   r.Tag,
	}
}

// NewRouter builds the public registration surface. Every success is
// {"success": true}; every failure is {"error": string} with 4xx for
// caller mistakes and 5xx for downstream trouble.
func NewRouter(svc *Service, origins []string, health func() error) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	r.GET("/vapid-public-key", func(c *gin.Context) {
		key, err := svc.SenderPublicKey()
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"publicKey": key})
	})

	r.POST("/subscribe", func(c *gin.Context) {
		var req SubscribeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := svc.Subscribe(c.Request.Context(), req); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	r.DELETE("/subscribe", func(c *gin.Context) {
		var req unsubscribeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := svc.Unsubscribe(c.Request.Context(), req.UserID, req.Endpoint); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	r.POST("/notify", func(c *gin.Context) {
		var req notifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if _, err := svc.Notify(c.Request.Context(), req.UserIDs, req.payload()); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	r.POST("/broadcast", func(c *gin.Context) {
		var req notifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if _, err := svc.Broadcast(c.Request.Context(), req.payload()); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "version": Version})
	})
	r.GET("/healthz", func(c *gin.Context) {
		if err := health(); err != nil {
			c.String(http.StatusServiceUnavailable, "unhealthy")
			return
		}
		c.String(http.StatusOK, "ok")
	})
	r.GET("/metrics", gin.WrapH(obs.MetricsHandler()))

	return r
}

func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, intent.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, vapid.ErrNotConfigured):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}
