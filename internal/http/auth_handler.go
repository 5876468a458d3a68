package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studycards/internal/service"
)

// verifyPromptPath es el siguiente paso sugerido cuando el email aun no esta verificado.
const verifyPromptPath = "/auth/verify/resend"

// AuthHandler mantiene dependencias para endpoints de autenticacion y perfil.
type AuthHandler struct {
	logger *zap.Logger
	auth   *service.AuthService
	cards  *service.FlashcardService
}

func NewAuthHandler(logger *zap.Logger, auth *service.AuthService, cards *service.FlashcardService) *AuthHandler {
	return &AuthHandler{
		logger: logger,
		auth:   auth,
		cards:  cards,
	}
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register maneja POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid register request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		case errors.Is(err, service.ErrInvalidEmail), errors.Is(err, service.ErrInvalidPassword):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			respondInternal(c, h.logger, "could not register", err)
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":    user,
		"message": "Registration successful. Please check your email to verify your account.",
		"next":    verifyPromptPath,
	})
}

// Login maneja POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		case errors.Is(err, service.ErrEmailNotVerified):
			c.JSON(http.StatusForbidden, gin.H{
				"error": "email not verified",
				"email": req.Email,
				"next":  verifyPromptPath,
			})
		default:
			respondInternal(c, h.logger, "could not login", err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": result.User, "tokens": result.Tokens})
}

// VerifyEmail maneja GET /auth/verify/:token.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	user, err := h.auth.VerifyEmail(c.Request.Context(), c.Param("token"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTokenExpired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "verification link expired", "next": verifyPromptPath})
		case errors.Is(err, service.ErrTokenInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid verification link", "next": verifyPromptPath})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			respondInternal(c, h.logger, "could not verify email", err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "status": "email_verified"})
}

// ResendVerification maneja POST /auth/verify/resend.
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid resend request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.auth.ResendVerification(c.Request.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, service.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
		case errors.Is(err, service.ErrEmailSendFailure):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "email delivery unavailable"})
		case errors.Is(err, service.ErrInvalidEmail):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email"})
		default:
			respondInternal(c, h.logger, "could not resend verification", err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "verification_sent"})
}

// RequestPasswordReset maneja POST /auth/password/reset. La respuesta no depende de si el email existe.
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	msg := h.auth.RequestPasswordReset(c.Request.Context(), req.Email)
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// ConfirmPasswordReset maneja POST /auth/password/reset/:token.
func (h *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	var req struct {
		Password        string `json:"password" binding:"required"`
		ConfirmPassword string `json:"confirm_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid reset confirm request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	err := h.auth.ConfirmPasswordReset(c.Request.Context(), c.Param("token"), req.Password, req.ConfirmPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrResetTokenInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired reset link"})
		case errors.Is(err, service.ErrResetTokenExpired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "reset link expired"})
		case errors.Is(err, service.ErrPasswordMismatch):
			c.JSON(http.StatusBadRequest, gin.H{"error": "passwords do not match"})
		case errors.Is(err, service.ErrInvalidPassword):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid password"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			respondInternal(c, h.logger, "could not reset password", err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "password_updated"})
}

// RefreshToken maneja POST /auth/refresh.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid refresh request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	tokens, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

// Logout maneja POST /auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid logout request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if err := h.auth.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		h.logger.Debug("logout with unusable refresh token", zap.Error(err))
	}
	c.Status(http.StatusNoContent)
}

// GetProfile maneja GET /auth/profile.
func (h *AuthHandler) GetProfile(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	user, err := h.auth.CurrentUser(c.Request.Context(), claims)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "session user not found"})
			return
		}
		respondInternal(c, h.logger, "could not load profile", err)
		return
	}
	count := 0
	if h.cards != nil {
		count = h.cards.Count(c.Request.Context(), claims.UserID)
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "flashcard_count": count})
}

// UpdateProfile maneja PUT /auth/profile.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req struct {
		Email           string `json:"email" binding:"omitempty,email"`
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid profile request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := h.auth.UpdateProfile(c.Request.Context(), claims.UserID, claims.SessionID, service.ProfileUpdateInput{
		Email:           req.Email,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "current password is incorrect"})
		case errors.Is(err, service.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		case errors.Is(err, service.ErrPasswordMismatch):
			c.JSON(http.StatusBadRequest, gin.H{"error": "passwords do not match"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			respondInternal(c, h.logger, "could not update profile", err)
		}
		return
	}

	resp := gin.H{
		"user":             result.User,
		"email_changed":    result.EmailChanged,
		"password_changed": result.PasswordChanged,
	}
	if result.EmailChanged {
		resp["next"] = verifyPromptPath
	}
	c.JSON(http.StatusOK, resp)
}
