// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/amirphl/dentalcare/app/dto"
	"github.com/amirphl/dentalcare/app/handlers"
	"github.com/amirphl/dentalcare/app/middleware"
	"github.com/amirphl/dentalcare/config"
	"github.com/amirphl/dentalcare/docs"
	"github.com/amirphl/dentalcare/models"
	"github.com/amirphl/dentalcare/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/swaggo/swag"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// Handlers groups the HTTP handlers mounted by the router
type Handlers struct {
	StaffAuth  handlers.StaffAuthHandlerInterface
	Inventory  handlers.InventoryHandlerInterface
	Patients   handlers.PatientHandlerInterface
	Radiograph handlers.RadiographHandlerInterface
	Clinic     handlers.ClinicHandlerInterface
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app            *fiber.App
	cfg            *config.ProductionConfig
	handlers       Handlers
	authMiddleware *middleware.AuthMiddleware
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(cfg *config.ProductionConfig, h Handlers, authMiddleware *middleware.AuthMiddleware) *FiberRouter {
	bodyLimit := cfg.Server.BodyLimit
	// multipart radiograph uploads need room for the image plus form overhead
	if uploadLimit := int(cfg.Storage.MaxUploadBytes) + 1<<20; bodyLimit < uploadLimit {
		bodyLimit = uploadLimit
	}

	app := fiber.New(fiber.Config{
		AppName:      "Dental Care API",
		ServerHeader: "dentalcare",
		ErrorHandler: errorHandler,
		BodyLimit:    bodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ProxyHeader:  cfg.Server.ProxyHeader,
		TrustProxy:   len(cfg.Server.TrustedProxies) > 0,
		TrustProxyConfig: fiber.TrustProxyConfig{
			Proxies: cfg.Server.TrustedProxies,
		},
	})

	return &FiberRouter{
		app:            app,
		cfg:            cfg,
		handlers:       h,
		authMiddleware: authMiddleware,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	utils.Logger.Info("Setting up routes...")

	r.setupMiddleware()

	if r.cfg.Metrics.Enabled {
		path := r.cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.app.Get(path, adaptor.HTTPHandler(promhttp.Handler()))
	}

	api := r.app.Group("/api/v1")
	api.Get("/health", r.healthCheck)

	if env := r.cfg.Deployment.Environment; env == "development" || env == "local" {
		docs.SwaggerInfo.Version = r.cfg.Deployment.Version
		docs.SwaggerInfo.Host = r.cfg.Deployment.Domain
		api.Get("/swagger.json", r.serveSwaggerJSON)
		utils.Logger.Info("API documentation enabled for development")
	}

	sec := r.cfg.Security
	api.Use(rateLimiter(sec.GlobalRateLimit, sec.RateLimitWindow, "/api/v1/health"))

	// Public site forms
	public := api.Group("/public")
	public.Use(rateLimiter(sec.AuthRateLimit, sec.RateLimitWindow, ""))
	public.Post("/feedback", r.handlers.Clinic.SubmitFeedback)
	public.Post("/inquiries", r.handlers.Clinic.SubmitInquiry)

	// Staff auth
	auth := api.Group("/auth")
	auth.Use(rateLimiter(sec.AuthRateLimit, sec.RateLimitWindow, ""))
	auth.Get("/captcha", r.handlers.StaffAuth.InitCaptcha)
	auth.Post("/login", r.handlers.StaffAuth.Login)
	auth.Post("/refresh", r.handlers.StaffAuth.Refresh)
	auth.Post("/logout", r.authMiddleware.StaffAuthenticate(), r.handlers.StaffAuth.Logout)
	auth.Get("/me", r.authMiddleware.StaffAuthenticate(), r.handlers.StaffAuth.Me)

	protected := api.Group("", r.authMiddleware.StaffAuthenticate())

	inv := protected.Group("/inventory")
	inv.Get("/items", r.handlers.Inventory.ListItems)
	inv.Post("/items", r.handlers.Inventory.CreateItem)
	inv.Get("/items/export", r.handlers.Inventory.ExportItems)
	inv.Get("/items/code/:code", r.handlers.Inventory.GetItemByCode)
	inv.Get("/items/:uuid", r.handlers.Inventory.GetItem)
	inv.Put("/items/:uuid", r.handlers.Inventory.UpdateItem)
	inv.Post("/items/:uuid/stock", r.handlers.Inventory.AdjustStock)
	inv.Delete("/items/:uuid", middleware.RequireRole(models.StaffRoleAdmin), r.handlers.Inventory.DeleteItem)
	inv.Get("/requests", r.handlers.Inventory.ListRequests)
	inv.Post("/requests", r.handlers.Inventory.CreateRequest)
	inv.Get("/requests/code/:code", r.handlers.Inventory.GetRequestByCode)
	inv.Get("/requests/:uuid", r.handlers.Inventory.GetRequest)
	inv.Patch("/requests/:uuid/status", middleware.RequireRole(models.StaffRoleAdmin, models.StaffRoleDentist), r.handlers.Inventory.UpdateRequestStatus)
	inv.Delete("/requests/:uuid", middleware.RequireRole(models.StaffRoleAdmin), r.handlers.Inventory.DeleteRequest)

	patients := protected.Group("/patients")
	patients.Get("", r.handlers.Patients.ListPatients)
	patients.Post("", r.handlers.Patients.CreatePatient)
	patients.Get("/:uuid", r.handlers.Patients.GetPatient)
	patients.Put("/:uuid", r.handlers.Patients.UpdatePatient)
	patients.Delete("/:uuid", middleware.RequireRole(models.StaffRoleAdmin), r.handlers.Patients.DeletePatient)
	patients.Get("/:uuid/radiographs", r.handlers.Radiograph.List)
	patients.Post("/:uuid/radiographs", r.handlers.Radiograph.Upload)

	radiographs := protected.Group("/radiographs")
	radiographs.Get("/:uuid/file", r.handlers.Radiograph.Download)
	radiographs.Get("/:uuid/preview", r.handlers.Radiograph.Preview)
	radiographs.Delete("/:uuid", middleware.RequireRole(models.StaffRoleAdmin, models.StaffRoleDentist), r.handlers.Radiograph.Delete)

	appts := protected.Group("/appointments")
	appts.Get("", r.handlers.Patients.ListAppointments)
	appts.Post("", r.handlers.Patients.CreateAppointment)
	appts.Get("/:uuid", r.handlers.Patients.GetAppointment)
	appts.Put("/:uuid", r.handlers.Patients.UpdateAppointment)
	appts.Post("/:uuid/cancel", r.handlers.Patients.CancelAppointment)
	appts.Delete("/:uuid", middleware.RequireRole(models.StaffRoleAdmin), r.handlers.Patients.DeleteAppointment)

	protected.Get("/feedback", r.handlers.Clinic.ListFeedback)
	protected.Delete("/feedback/:uuid", middleware.RequireRole(models.StaffRoleAdmin), r.handlers.Clinic.DeleteFeedback)
	protected.Get("/inquiries", r.handlers.Clinic.ListInquiries)
	protected.Post("/inquiries/:uuid/answer", r.handlers.Clinic.AnswerInquiry)
	protected.Delete("/inquiries/:uuid", middleware.RequireRole(models.StaffRoleAdmin), r.handlers.Clinic.DeleteInquiry)

	admin := protected.Group("/admin", middleware.RequireRole(models.StaffRoleAdmin))
	admin.Get("/counters", r.handlers.Clinic.ListCounters)

	r.app.Use(r.notFoundHandler)

	utils.Logger.Info("Routes configured successfully")
}

func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header:    "X-Request-ID",
		Generator: generateRequestID,
	}))

	sec := r.cfg.Security
	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        sec.XContentTypeOptions,
		XFrameOptions:             sec.XFrameOptions,
		ContentSecurityPolicy:     sec.CSPPolicy,
		HSTSMaxAge:                sec.HSTSMaxAge,
		HSTSExcludeSubdomains:     !sec.HSTSIncludeSubDoms,
		HSTSPreloadEnabled:        sec.HSTSPreload,
		ReferrerPolicy:            sec.ReferrerPolicy,
		CrossOriginResourcePolicy: "cross-origin",
		XDNSPrefetchControl:       "off",
		XDownloadOptions:          "noopen",
		XPermittedCrossDomain:     "none",
	}))

	r.app.Use(cors.New(cors.Config{
		AllowOrigins:     r.cfg.Security.AllowedOrigins,
		AllowMethods:     r.cfg.Security.AllowedMethods,
		AllowHeaders:     r.cfg.Security.AllowedHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: r.cfg.Security.AllowCredentials,
		MaxAge:           r.cfg.Security.CORSMaxAge,
	}))

	if r.cfg.Server.EnableCompression {
		r.app.Use(compress.New(compress.Config{
			Level: compress.Level(r.cfg.Server.CompressionLevel),
			Next: func(c fiber.Ctx) bool {
				// images are already compressed
				return strings.HasPrefix(string(c.Response().Header.ContentType()), "image/")
			},
		}))
	}

	if r.cfg.Server.EnableMetrics {
		r.app.Use(middleware.Metrics())
	}

	if r.cfg.Logging.EnableAccessLog {
		r.app.Use(logger.New(logger.Config{
			Format:     `{"time":"${time}","request_id":"${locals:requestid}","level":"info","method":"${method}","path":"${path}","ip":"${ip}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent}}` + "\n",
			TimeFormat: time.RFC3339,
			TimeZone:   "UTC",
			Stream:     utils.Logger.Writer(),
			Next: func(c fiber.Ctx) bool {
				return c.Path() == "/api/v1/health"
			},
		}))
	}

	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e any) {
			utils.Logger.WithFields(logrus.Fields{
				"event":      "panic",
				"request_id": requestid.FromContext(c),
				"path":       c.Path(),
				"method":     c.Method(),
				"ip":         c.IP(),
			}).Errorf("%v", e)
		},
	}))
}

func rateLimiter(max int, window time.Duration, skipPath string) fiber.Handler {
	if window <= 0 {
		window = time.Minute
	}
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
				Success: false,
				Message: "Too many requests. Please try again later.",
				Error:   dto.ErrorDetail{Code: "RATE_LIMIT_EXCEEDED"},
			})
		},
		Next: func(c fiber.Ctx) bool {
			return skipPath != "" && c.Path() == skipPath
		},
	})
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	utils.Logger.Infof("Starting server on %s", address)
	if r.cfg.Security.TLSEnabled {
		return r.app.Listen(address, fiber.ListenConfig{
			CertFile:    r.cfg.Security.TLSCertFile,
			CertKeyFile: r.cfg.Security.TLSKeyFile,
		})
	}
	return r.app.Listen(address)
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	return c.JSON(dto.APIResponse{
		Success: true,
		Message: "Service is healthy",
		Data: fiber.Map{
			"status":          "ok",
			"timestamp":       utils.UTCNow().Unix(),
			"version":         r.cfg.Deployment.Version,
			"commit":          r.cfg.Deployment.CommitHash,
			"build_time":      r.cfg.Deployment.BuildTime,
			"service":         "dentalcare-api",
			"counter_backend": r.cfg.CodeGen.CounterBackend,
		},
	})
}

func (r *FiberRouter) serveSwaggerJSON(c fiber.Ctx) error {
	doc, err := swag.ReadDoc()
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.SendString(doc)
}

func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": requestid.FromContext(c),
			},
		},
	})
}

// Global error handler
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "An internal server error occurred"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	utils.Logger.WithFields(logrus.Fields{
		"status":     code,
		"request_id": requestid.FromContext(c),
		"path":       c.Path(),
	}).WithError(err).Error("request failed")

	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code: "INTERNAL_ERROR",
			Details: fiber.Map{
				"timestamp":  utils.UTCNow().Unix(),
				"request_id": requestid.FromContext(c),
			},
		},
	})
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
