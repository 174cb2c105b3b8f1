package handlers

import (
	"html/template"
	"time"

	_ "valve_control/docs"
	"valve_control/internal/logger"
	"valve_control/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Config holds HTTP layer settings.
type Config struct {
	// StaticDir is served under /static; empty disables it.
	StaticDir string
	// WSInterval is the default websocket push interval.
	WSInterval time.Duration
}

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	cfg      Config
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, cfg Config) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.WSInterval <= 0 {
		cfg.WSInterval = defaultInterval
	}
	return &Handler{services: services, log: log, cfg: cfg}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.requestLogger)
	router.SetHTMLTemplate(template.Must(template.New("pages").Funcs(pageFuncs).Parse(pageTemplates)))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)
	if h.cfg.StaticDir != "" {
		router.Static("/static", h.cfg.StaticDir)
	}

	// Pages and the mutations the page script sends
	h.registerPageRoutes(router)

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerPageRoutes(r *gin.Engine) {
	r.GET("/", h.homePage)
	r.POST("/", h.createValve)

	valves := r.Group("/valves")
	{
		valves.GET("/:id", h.detailPage)
		valves.POST("/:id/status", h.updateStatus)
		valves.DELETE("/:id/", h.deleteValve)
		valves.POST("/:id/timetable", h.addScheduleEntry)
		valves.DELETE("/:id/timetable", h.deleteScheduleEntry)
	}
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		api.GET("/valves", h.listValves)
		api.GET("/valves/:id", h.getValve)
		api.GET("/events", h.getEvents)
	}
}
