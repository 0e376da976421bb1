// Package app wires the HTTP surface: middleware chain, route groups and
// the dependency container behind them
package app

import (
	"context"
	"fmt"
	"time"

	"landrop/share-api/app/device"
	"landrop/share-api/app/file"
	"landrop/share-api/app/key"
	"landrop/share-api/app/root"
	"landrop/share-api/config"
	"landrop/share-api/db"
	"landrop/share-api/internal"
	"landrop/share-api/internal/model"
	"landrop/share-api/internal/service"
	"landrop/share-api/pkg/middleware"
	"landrop/share-api/pkg/security"
	"landrop/share-api/storage"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

var store = persist.NewMemoryStore(time.Minute)

func NewRouter() (*gin.Engine, error) {
	makeLogger()

	d := &internal.Deps{}

	conn, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}
	d.DB = conn

	blobs, err := storage.NewBlobStore()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize blob storage, %w", err)
	}
	d.Store = storage.NewStore(blobs)

	identity, err := security.LoadOrCreateIdentity(
		viper.GetString("identity.path"),
		viper.GetString("identity.name"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load node identity, %w", err)
	}
	d.Identity = identity

	devices, err := service.NewDevices(conn, identity)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize device ledger, %w", err)
	}
	d.Devices = devices

	d.Files = service.NewFiles(conn, d.Store, devices)
	d.Keys = service.NewAPIKeys(conn)
	d.Share = service.NewShare()
	d.Sweeper = service.NewSweeper(conn, d.Store)

	if err := d.Keys.Bootstrap(devices.SelfID()); err != nil {
		return nil, fmt.Errorf("failed to bootstrap API keys, %w", err)
	}

	runner := cron.New()
	if err := d.Sweeper.Attach(runner, viper.GetString("cleanup.schedule")); err != nil {
		return nil, err
	}
	runner.Start()

	router := gin.New()

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:5173"},
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Api-Key"},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("deviceID"); v != "" {
					fields = append(fields, zap.String("device_id", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true
	router.MaxMultipartMemory = 5 << 20

	rateLimit := viper.GetInt("security.rate_limit")
	rateLimiter := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: rateLimit,
		Burst:             rateLimit * 2,
	})

	write := middleware.NewAuthMiddleware(d.Keys, model.PermWrite)
	admin := middleware.NewAuthMiddleware(d.Keys, model.PermAdmin)
	maxUploadSize := viper.GetInt64("upload.max_size")

	m := router.Group("/api", rateLimiter)
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		m.HEAD("/heartbeat", root.Heartbeat)

		// POST /api/cleanup		-> Runs an expiry sweep right now
		m.POST("/cleanup", admin, func(c *gin.Context) { root.Cleanup(c, d) })

		// GET /api/share/:token	-> Redeems a share link and serves the file
		m.GET("/share/:token", func(c *gin.Context) { file.ShareRedeem(c, d) })
	}

	f := m.Group("/files")
	{
		// GET /api/files		-> Lists all currently accessible files
		f.GET("", cacheFor(5), func(c *gin.Context) { file.FileList(c, d) })

		// POST /api/files		-> Uploads a new file, encrypts and stores it
		f.POST("", middleware.BodySizeLimiter(maxUploadSize+1<<20), func(c *gin.Context) { file.FileUpload(c, d) })

		// GET /api/files/:id		-> Serves a file decrypted
		f.GET("/:id", func(c *gin.Context) { file.FileDownload(c, d) })

		// GET /api/files/:id/info	-> Returns a file's public metadata
		f.GET("/:id/info", cacheFor(5), func(c *gin.Context) { file.FileInfo(c, d) })

		// GET /api/files/:id/share	-> Mints a share link for a file
		f.GET("/:id/share", func(c *gin.Context) { file.ShareMint(c, d) })

		// DELETE /api/files/:id	-> Tombstones a file and removes its ciphertext
		f.DELETE("/:id", write, func(c *gin.Context) { file.FileDelete(c, d) })
	}

	dv := m.Group("/devices")
	{
		// GET /api/devices		-> Lists all known devices
		dv.GET("", cacheFor(5), func(c *gin.Context) { device.DeviceList(c, d) })

		// POST /api/devices		-> Registers a device (starts untrusted)
		dv.POST("", middleware.BodySizeLimiter(1<<20), func(c *gin.Context) { device.DeviceRegister(c, d) })

		// PATCH /api/devices/:id	-> Renames a device
		dv.PATCH("/:id", write, func(c *gin.Context) { device.DeviceRename(c, d) })

		// POST /api/devices/:id/trust	-> Marks a device trusted
		dv.POST("/:id/trust", admin, func(c *gin.Context) { device.DeviceTrust(c, d) })

		// POST /api/devices/:id/untrust -> Revokes a device's trust
		dv.POST("/:id/untrust", admin, func(c *gin.Context) { device.DeviceUntrust(c, d) })

		// DELETE /api/devices/:id	-> Deletes a device (never the self record)
		dv.DELETE("/:id", admin, func(c *gin.Context) { device.DeviceDelete(c, d) })
	}

	k := m.Group("/keys", admin)
	{
		// GET /api/keys		-> Lists API key records (hashes stay hidden)
		k.GET("", func(c *gin.Context) { key.KeyList(c, d) })

		// POST /api/keys		-> Mints a new API key
		k.POST("", func(c *gin.Context) { key.KeyCreate(c, d) })

		// DELETE /api/keys/:id		-> Revokes an API key
		k.DELETE("/:id", func(c *gin.Context) { key.KeyRevoke(c, d) })
	}

	if *config.SweepOnStart {
		go func() {
			if _, err := d.Sweeper.Sweep(context.Background()); err != nil {
				zap.L().Error("Startup sweep failed", zap.Error(err))
			}
		}()
	}

	return router, nil
}

func makeLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = levelFromConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}

func levelFromConfig() zap.AtomicLevel {
	switch viper.GetString("app.log_level") {
	case "debug":
		return zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case "warn":
		return zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case "error":
		return zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	case "fatal":
		return zap.NewAtomicLevelAt(zapcore.FatalLevel)
	default:
		return zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
}

func cacheFor(sec int) gin.HandlerFunc {
	return cache.CacheByRequestURI(store, time.Second*time.Duration(sec))
}
