package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirphl/dentalcare/app/handlers"
	"github.com/amirphl/dentalcare/app/middleware"
	"github.com/amirphl/dentalcare/app/router"
	"github.com/amirphl/dentalcare/app/scheduler"
	"github.com/amirphl/dentalcare/app/services"
	businessflow "github.com/amirphl/dentalcare/business_flow"
	"github.com/amirphl/dentalcare/config"
	"github.com/amirphl/dentalcare/models"
	"github.com/amirphl/dentalcare/repository"
	"github.com/amirphl/dentalcare/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// @title Dental Care API
// @version 1.0
// @description Clinic management API: patients, appointments, radiographs, inventory and public feedback.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// Application holds the wired server and cleanup hooks
type Application struct {
	router    *router.FiberRouter
	config    *config.ProductionConfig
	server    *fiber.App
	stopFuncs []func()
}

// counterBackend is what every counter store offers: atomic increments for the
// code generator and plain reads for the admin listing
type counterBackend interface {
	services.CounterStore
	businessflow.CounterReader
}

func main() {
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	utils.InitLogger("dentalcare", utils.LogOptions{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		FilePath:   cfg.Logging.FilePath,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
		Compress:   cfg.Logging.Compress,
		Caller:     cfg.Logging.EnableCaller,
	})
	utils.Logger.Info("Starting dental care application...")

	app, err := initializeApplication(cfg)
	if err != nil {
		utils.Logger.Fatalf("Failed to initialize application: %v", err)
	}

	app.router.SetupRoutes()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := app.router.Start(address); err != nil {
			utils.Logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-sigChan
	utils.Logger.Info("Shutting down gracefully...")

	for _, fn := range app.stopFuncs {
		fn()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		utils.Logger.Errorf("Error during shutdown: %v", err)
	}

	utils.Logger.Info("Server stopped")
}

func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{TranslateError: true}
	if cfg.SlowQueryLog {
		gormCfg.Logger = logger.New(utils.Logger, logger.Config{
			SlowThreshold: cfg.SlowQueryTime,
			LogLevel:      logger.Warn,
		})
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.AutoMigrate {
		if err := db.AutoMigrate(models.All()...); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	utils.Logger.Infof("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

func initializeCache(cfg *config.ProductionConfig) (*redis.Client, error) {
	if !cfg.UsesRedis() {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.Cache.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.DB = cfg.Cache.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	utils.Logger.Infof("Redis connection established (db=%d)", cfg.Cache.RedisDB)
	return rc, nil
}

func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					utils.Logger.WithError(err).Warn("Redis healthcheck failed")
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeCounterStore picks where code counters live
func initializeCounterStore(cfg config.CodeGenConfig, db *gorm.DB, rc *redis.Client) (counterBackend, error) {
	switch cfg.CounterBackend {
	case config.CounterBackendPostgres:
		return repository.NewCounterRepository(db), nil
	case config.CounterBackendRedis:
		if rc == nil {
			return nil, fmt.Errorf("counter backend %q requires a redis connection", cfg.CounterBackend)
		}
		return services.NewRedisCounterStore(rc, cfg.RedisKeyPrefix), nil
	case config.CounterBackendMemory:
		utils.Logger.Warn("Using in-memory code counters; codes restart after a process restart")
		return services.NewMemoryCounterStore(), nil
	default:
		return nil, fmt.Errorf("unknown counter backend %q", cfg.CounterBackend)
	}
}

func initializeCaptcha(cfg config.CaptchaConfig, rc *redis.Client, keyPrefix string) (services.CaptchaService, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	var store services.ChallengeStore = services.NewMemoryChallengeStore()
	if rc != nil {
		store = services.NewRedisChallengeStore(rc, keyPrefix+"captcha:")
	}
	return services.NewCaptchaServiceRotate(store, cfg.TTL, cfg.Padding, cfg.ImageSize)
}

func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		stopFuncs = append(stopFuncs, startCacheHealthMonitor(context.Background(), rc, 30*time.Second))
		stopFuncs = append(stopFuncs, func() { _ = rc.Close() })
	}

	staffRepo := repository.NewStaffRepository(db)
	itemRepo := repository.NewInventoryItemRepository(db)
	requestRepo := repository.NewInventoryRequestRepository(db)
	patientRepo := repository.NewPatientRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	radiographRepo := repository.NewRadiographRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	inquiryRepo := repository.NewInquiryRepository(db)

	counters, err := initializeCounterStore(cfg.CodeGen, db, rc)
	if err != nil {
		return nil, err
	}
	codeGen := services.NewCodeGenerator(counters)
	utils.Logger.Infof("Code counters stored in %s", cfg.CodeGen.CounterBackend)

	captchaSvc, err := initializeCaptcha(cfg.Captcha, rc, cfg.Cache.RedisPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize captcha: %w", err)
	}

	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.UseRSAKeys,
		cfg.JWT.PrivateKey,
		cfg.JWT.PublicKey,
		cfg.JWT.SecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer seedCancel()
	if _, err := businessflow.SeedStaff(seedCtx, staffRepo, cfg.Admin.Username, cfg.Admin.Password, cfg.Admin.FullName, models.StaffRoleAdmin); err != nil {
		return nil, fmt.Errorf("failed to seed admin account: %w", err)
	}

	notifier := services.NewNotificationService(services.NewSMSProvider(&cfg.SMS))

	staffAuthFlow := businessflow.NewStaffAuthFlow(staffRepo, tokenService, captchaSvc, cfg.JWT.AccessTokenTTL)
	itemFlow := businessflow.NewInventoryItemFlow(itemRepo, codeGen)
	requestFlow := businessflow.NewInventoryRequestFlow(requestRepo, itemRepo, codeGen, businessflow.GormTxRunner(db))
	patientFlow := businessflow.NewPatientFlow(patientRepo)
	appointmentFlow := businessflow.NewAppointmentFlow(appointmentRepo, patientRepo, notifier, cfg.SMS.SendReminders, businessflow.GormTxRunner(db))
	radiographFlow := businessflow.NewRadiographFlow(patientRepo, radiographRepo, businessflow.RadiographStorageOptions{
		BaseDir:         cfg.Storage.RadiographDir,
		MaxUploadBytes:  cfg.Storage.MaxUploadBytes,
		ThumbnailMaxDim: cfg.Storage.ThumbnailMaxDim,
	})
	feedbackFlow := businessflow.NewFeedbackFlow(feedbackRepo)
	inquiryFlow := businessflow.NewInquiryFlow(inquiryRepo)
	counterFlow := businessflow.NewCounterAdminFlow(cfg.CodeGen.CounterBackend, counters, map[services.CodeScope]services.CollectionCounter{
		services.ScopeInventoryRequest: requestRepo,
	})

	if cfg.Scheduler.ReminderEnabled {
		reminders := scheduler.NewReminderScheduler(appointmentFlow, cfg.Scheduler.ReminderInterval, cfg.Scheduler.ReminderLeadTime)
		stopFuncs = append(stopFuncs, reminders.Start(context.Background()))
	}

	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	appRouter := router.NewFiberRouter(cfg, router.Handlers{
		StaffAuth:  handlers.NewStaffAuthHandler(staffAuthFlow),
		Inventory:  handlers.NewInventoryHandler(itemFlow, requestFlow),
		Patients:   handlers.NewPatientHandler(patientFlow, appointmentFlow),
		Radiograph: handlers.NewRadiographHandler(radiographFlow),
		Clinic:     handlers.NewClinicHandler(feedbackFlow, inquiryFlow, counterFlow),
	}, authMiddleware)

	return &Application{
		router:    appRouter,
		config:    cfg,
		server:    appRouter.GetApp(),
		stopFuncs: stopFuncs,
	}, nil
}
