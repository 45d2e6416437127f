// Package app wires the handlers, middleware and services into the
// HTTP server
package app

import (
	"cedarhill/portal-api/app/admin"
	"cedarhill/portal-api/app/auth"
	"cedarhill/portal-api/app/file"
	"cedarhill/portal-api/app/root"
	"cedarhill/portal-api/db"
	"cedarhill/portal-api/internal"
	"cedarhill/portal-api/internal/service"
	"cedarhill/portal-api/pkg/middleware"
	"cedarhill/portal-api/pkg/security"
	"cedarhill/portal-api/pkg/session"
	"cedarhill/portal-api/storage"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	ginzap "github.com/gin-contrib/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

func NewRouter() (*gin.Engine, error) {
	d := &internal.Deps{}

	router := gin.New()

	conn, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}
	d.DB = conn

	store, err := storage.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage, %w", err)
	}
	d.Storage = store

	d.Sessions = session.NewManager(
		viper.GetString("session.secret"),
		viper.GetInt("session.max_age"),
		viper.GetBool("session.secure"),
	)

	d.Audit = service.NewAuditor(conn)
	d.Accounts = service.NewAccounts(
		conn,
		service.NewMailer(),
		d.Audit,
		security.NewHasher(viper.GetInt("security.bcrypt_cost")),
	)

	if err := d.Accounts.EnsureSeedUsers(); err != nil {
		return nil, fmt.Errorf("failed to seed initial accounts, %w", err)
	}

	origins := viper.GetStringSlice("host.cors_origins")
	if len(origins) == 0 {
		origins = []string{viper.GetString("host.base_url")}
	}

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Range"},
			ExposeHeaders:    []string{"Content-Length", "Content-Range", "Content-Disposition"},
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

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true
	router.MaxMultipartMemory = 5 << 20

	sessionAuth := middleware.NewSessionAuth(d.Sessions, conn)
	loginLimiter := middleware.NewLoginLimiter(
		viper.GetDuration("security.login_limit.window"),
		viper.GetInt("security.login_limit.max"),
	)
	rateLimiter := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: viper.GetInt("security.rate_limit.rps"),
		Burst:             viper.GetInt("security.rate_limit.burst"),
	})
	maxUploadSize := viper.GetInt64("upload.max_size")

	m := router.Group("/api", rateLimiter)
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		m.HEAD("/heartbeat", root.Heartbeat)
	}

	a := m.Group("/auth", middleware.BodySizeLimiter(1<<20))
	{
		// POST /api/auth/register	-> Registers a new account and mails the verification link
		a.POST("/register", func(c *gin.Context) { auth.Register(c, d) })

		// GET /api/auth/verify		-> Consumes a verification token
		a.GET("/verify", func(c *gin.Context) { auth.Verify(c, d) })

		// POST /api/auth/login 	-> Logs in and sets the session cookie
		a.POST("/login", loginLimiter.Middleware(), func(c *gin.Context) { auth.Login(c, d) })

		// POST /api/auth/logout	-> Destroys the session
		a.POST("/logout", func(c *gin.Context) { auth.Logout(c, d) })

		// GET /api/auth/me		-> Returns the logged in account
		a.GET("/me", sessionAuth, auth.Me)

		// POST /api/auth/reset		-> Opens a password reset window
		a.POST("/reset", func(c *gin.Context) { auth.ResetRequest(c, d) })

		// POST /api/auth/reset/confirm	-> Consumes a reset token and sets the new password
		a.POST("/reset/confirm", func(c *gin.Context) { auth.ResetConfirm(c, d) })
	}

	f := m.Group("/files", sessionAuth)
	{
		// GET /api/files		-> Returns the caller's files in pages
		f.GET("", func(c *gin.Context) { file.FileList(c, d) })

		// POST /api/files         	-> Uploads a new file and stores it in the database
		f.POST("", middleware.BodySizeLimiter(maxUploadSize), func(c *gin.Context) { file.FileUpload(c, d) })

		// GET /api/files/:id		-> Streams a file back to its owner or an admin
		f.GET("/:id", func(c *gin.Context) { file.FileDownload(c, d) })

		// DELETE /api/files/:id	-> Deletes a file owned by the caller
		f.DELETE("/:id", func(c *gin.Context) { file.FileDelete(c, d) })
	}

	adm := m.Group("/admin", sessionAuth, middleware.RequireAdmin())
	{
		// GET /api/admin/users		-> Lists every account
		adm.GET("/users", func(c *gin.Context) { admin.Users(c, d) })

		// POST /api/admin/users/:id/role -> Flips the admin flag of an account
		adm.POST("/users/:id/role", func(c *gin.Context) { admin.ToggleRole(c, d) })

		// DELETE /api/admin/users/:id	-> Deletes an account and its files
		adm.DELETE("/users/:id", func(c *gin.Context) { admin.DeleteUser(c, d) })

		// GET /api/admin/audit		-> Returns the latest 100 audit entries
		adm.GET("/audit", func(c *gin.Context) { admin.Audit(c, d) })
	}

	webDir := viper.GetString("web.dir")

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}

		serveStatic(c, webDir)
	})

	// Expired reset windows build up slowly, a daily sweep is plenty
	service.ResetTokenCleanup(time.Hour*24, conn)

	return router, nil
}

// serveStatic maps clean URLs onto the files of the marketing site, so
// /about serves about.html.
func serveStatic(c *gin.Context, dir string) {
	p := filepath.Clean(c.Request.URL.Path)
	if p == "/" {
		p = "/index.html"
	}

	full := filepath.Join(dir, p)
	if fi, err := os.Stat(full); err == nil && !fi.IsDir() {
		c.File(full)
		return
	}

	if fi, err := os.Stat(full + ".html"); err == nil && !fi.IsDir() {
		c.File(full + ".html")
		return
	}

	c.Status(http.StatusNotFound)
}

// SetupLogger replaces the global zap logger with the configured one.
// Call it once, right after the config is loaded.
func SetupLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	if lvl, err := zapcore.ParseLevel(viper.GetString("app.log_level")); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}
