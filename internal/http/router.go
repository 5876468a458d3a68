package http

import (
	"context"
	"net/http"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studycards/internal/service"
)

// RouterOptions agrupa la configuracion transversal del router.
type RouterOptions struct {
	BackendTimeout time.Duration
	// Sentry activa el middleware de reporte; requiere sentry.Init previo.
	Sentry bool
}

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	opts RouterOptions,
	jwtSvc *service.JWTService,
	authH *AuthHandler,
	cardH *FlashcardHandler,
) *gin.Engine {
	r := gin.New()

	r.Use(zapLoggerMiddleware(logger), gin.Recovery())
	if opts.Sentry {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	r.Use(jsonContentTypeMiddleware(), backendTimeoutMiddleware(opts.BackendTimeout))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := r.Group("/auth")
	auth.POST("/register", authH.Register)
	auth.POST("/login", authH.Login)
	auth.GET("/verify/:token", authH.VerifyEmail)
	auth.POST("/verify/resend", authH.ResendVerification)
	auth.POST("/password/reset", authH.RequestPasswordReset)
	auth.POST("/password/reset/:token", authH.ConfirmPasswordReset)
	auth.POST("/refresh", authH.RefreshToken)
	auth.POST("/logout", authH.Logout)

	profile := auth.Group("/profile", JWTAuthMiddleware(jwtSvc))
	profile.GET("", authH.GetProfile)
	profile.PUT("", authH.UpdateProfile)

	cards := r.Group("/flashcards", JWTAuthMiddleware(jwtSvc))
	cards.GET("", cardH.List)
	cards.POST("", cardH.Create)
	cards.GET("/:id", cardH.Get)
	cards.PUT("/:id", cardH.Update)
	cards.DELETE("/:id", cardH.Delete)
	cards.POST("/:id/mastery", cardH.AdjustMastery)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}

// backendTimeoutMiddleware acota todas las llamadas al backend hechas con el contexto del request.
func backendTimeoutMiddleware(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
