package api

import (
	"github.com/gin-gonic/gin"

	"github.com/jmpark/foyer/internal/api/handler"
	"github.com/jmpark/foyer/internal/api/middleware"
	"github.com/jmpark/foyer/internal/face"
	"github.com/jmpark/foyer/internal/logger"
)

// SetupRouter configures the Gin router with all routes.
func SetupRouter(
	faceService *face.Service,
	cors middleware.CORSConfig,
	log *logger.Logger,
	mode string,
) *gin.Engine {
	switch mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(cors))

	healthHandler := handler.NewHealthHandler()
	faceHandler := handler.NewFaceHandler(faceService)

	r.GET("/health", healthHandler.Health)

	// Routes kept flat for the capture client.
	r.POST("/register", faceHandler.Register)
	r.POST("/verify", faceHandler.Verify)
	r.GET("/status", faceHandler.Status)

	return r
}
