package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"silverSignalBot/internal/app"
	"silverSignalBot/internal/ports"
)

// Server exposes the WhatsApp webhook, the status endpoint and metrics.
type Server struct {
	cfg    Config
	svc    *app.Service
	logger ports.Logger
	http   *http.Server
}

// Config holds HTTP server settings.
type Config struct {
	Addr        string
	VerifyToken string
	Logger      ports.Logger
}

// webhookPayload mirrors the Meta Graph API webhook envelope, down to the
// fields the bot actually reads.
type webhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []struct {
					From string `json:"from"`
					Type string `json:"type"`
					Text struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// New wires the routes and returns the server, not yet listening.
func New(cfg Config, svc *app.Service) (*Server, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for server")
	}
	if svc == nil {
		return nil, fmt.Errorf("app service is required for server")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8000"
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		cfg:    cfg,
		svc:    svc,
		logger: cfg.Logger,
		http: &http.Server{
			Addr:         cfg.Addr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
	}

	router.GET("/webhook", s.verifyWebhook)
	router.POST("/webhook", s.receiveWebhook)
	router.GET("/get-data", s.getData)
	router.GET("/healthz", s.healthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return s, nil
}

// Run blocks serving HTTP until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	s.logger.Info(context.Background(), "HTTP server listening", map[string]interface{}{"addr": s.cfg.Addr})
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// verifyWebhook answers the Meta subscription handshake: echo hub.challenge
// when the verify token matches, 403 otherwise.
func (s *Server) verifyWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token == s.cfg.VerifyToken {
		s.logger.Info(c.Request.Context(), "webhook verified")
		c.String(http.StatusOK, challenge)
		return
	}
	s.logger.Warn(c.Request.Context(), "webhook verification rejected", map[string]interface{}{"mode": mode})
	c.String(http.StatusForbidden, "verification failed")
}

// receiveWebhook dispatches each inbound text message to the trade machine.
// Non-text messages and status callbacks are acknowledged and ignored so Meta
// does not retry them.
func (s *Server) receiveWebhook(c *gin.Context) {
	var payload webhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		s.logger.Warn(c.Request.Context(), "malformed webhook payload", map[string]interface{}{"err": err.Error()})
		c.JSON(http.StatusBadRequest, gin.H{"status": "invalid payload"})
		return
	}

	ctx := c.Request.Context()
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if msg.Type != "text" || msg.From == "" {
					continue
				}
				if _, err := s.svc.HandleMessage(ctx, msg.From, msg.Text.Body); err != nil {
					// The transition already committed where it could; failures
					// here must not make Meta redeliver the webhook.
					s.logger.Error(ctx, err, "inbound message handling failed", map[string]interface{}{
						"from": msg.From,
					})
				}
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

// getData serves the latest trend report as flat JSON.
func (s *Server) getData(c *gin.Context) {
	c.JSON(http.StatusOK, s.svc.LatestFlat())
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
