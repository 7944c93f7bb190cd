package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"medirag/internal/logger"
)

// Server exposes the chat flow over HTTP for the browser UI.
type Server struct {
	Engine *gin.Engine
}

// New builds the router: CORS for the browser frontend, a request id
// on every call, and the chat, transcription and synthesis routes.
func New(h *Handlers, log *logger.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())
	r.Use(requestLogger(log))

	r.GET("/healthcheck", h.Health)

	api := r.Group("/api")
	{
		api.POST("/chat", h.Chat)
		api.POST("/transcribe", h.Transcribe)
		api.POST("/speak", h.Speak)
	}
	return &Server{Engine: r}
}

// Run blocks serving on the given address.
func (s *Server) Run(addr string) error {
	return s.Engine.Run(addr)
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		c.Set("request_id", id)
		c.Next()
		log.Info("request",
			"request_id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
		)
	}
}
