// Package http assembles the gin engine that fronts the kernel: every
// admin operation spec.md describes (fork, set_tickets, kill, wait,
// snapshot) is reachable only through this HTTP surface — there is no
// separate CLI for driving a running kernel.
package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/stridekernd/stridekernd/internal/api/http/handlers"
	"github.com/stridekernd/stridekernd/internal/http/middleware"
	"github.com/stridekernd/stridekernd/internal/kernel"
	stridekerndredis "github.com/stridekernd/stridekernd/redis"
	"github.com/stridekernd/stridekernd/internal/snapshot"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ZapLogger logs each completed request at a level derived from its
// status code.
func ZapLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		var errs []error
		for _, ge := range c.Errors {
			if ge.Err != nil {
				errs = append(errs, ge.Err)
			}
		}
		joinedErr := errors.Join(errs...)

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.String("client_ip", c.ClientIP()),
			zap.Duration("latency", latency),
		}
		if joinedErr != nil {
			fields = append(fields, zap.Error(joinedErr))
		}

		switch {
		case status >= 500:
			log.Error("request", fields...)
		case status >= 400:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

// NewRouter wires the full middleware chain and route table. sessionKey
// authenticates (signs) the cookie session store; no encryption key is
// configured, so cookie contents are not encrypted. Pass a random
// 32-byte key in production (see cmd/stridekernd/main.go).
func NewRouter(log *zap.Logger, k *kernel.Kernel, redisClient *stridekerndredis.Client, sessionKey []byte, isDev bool) *gin.Engine {
	if isDev {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	snap := snapshot.NewService(log, k, redisClient, snapshot.Options{})

	r := gin.New()
	_ = r.SetTrustedProxies([]string{"127.0.0.1"})

	r.Use(gin.Recovery())

	if isDev {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:5173"},
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type", "Authorization", "X-CSRF-Token"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(secure.New(secure.Config{
			SSLRedirect:           false, // terminated upstream by a reverse proxy
			STSSeconds:            31536000,
			STSIncludeSubdomains:  true,
			FrameDeny:             true,
			ContentTypeNosniff:    true,
			ContentSecurityPolicy: "default-src 'none'",
		}))
	}

	store := cookie.NewStore(sessionKey)
	store.Options(sessions.Options{
		Path:     "/api",
		MaxAge:   8 * 60 * 60,
		Secure:   !isDev,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("stridekernd_session", store))

	r.Use(middleware.RequestID())
	r.Use(ZapLogger(log.Named("http")))

	procH := handlers.NewProcHandler(log, k, snap)
	queueH := handlers.NewQueueHandler(log, snap)
	waitH := handlers.NewWaitHandler(log, k, snap)
	authH := handlers.NewAuthHandler(log, isDev)

	api := r.Group("/api")
	api.GET("/ping", handlers.Ping)
	api.POST("/auth/login", authH.Login)

	protected := api.Group("")
	protected.Use(middleware.Authentication, middleware.ValidateSessionCSRF)
	{
		protected.POST("/auth/logout", authH.Logout)
		protected.GET("/auth/me", handlers.Me)
		protected.GET("/auth/csrf", handlers.Csrf)

		protected.GET("/procs", procH.List)
		protected.POST("/procs", procH.Fork)
		protected.GET("/procs/:pid", middleware.RequireValidPID(), procH.Get)
		protected.GET("/procs/:pid/logs", middleware.RequireValidPID(), procH.Logs)
		protected.POST("/procs/:pid/tickets", middleware.RequireValidPID(), procH.SetTickets)
		protected.POST("/procs/:pid/kill", middleware.RequireValidPID(), procH.Kill)

		protected.GET("/queue", queueH.List)
		protected.POST("/wait", middleware.CapConcurrentRequests(32), waitH.Wait)
	}

	return r
}

// NewServer wraps r in an *http.Server with the teacher's conservative
// timeout and header-size defaults.
func NewServer(addr string, r *gin.Engine, log *zap.Logger) *http.Server {
	return &http.Server{
		Addr:           addr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 15,
		ErrorLog:       zap.NewStdLog(log.Named("http").WithOptions(zap.AddCallerSkip(1))),
	}
}
