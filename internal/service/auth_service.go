package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"studycards/internal/authprovider"
	"studycards/internal/domain"
	"studycards/internal/email"
	"studycards/internal/kv"
	"studycards/internal/repository"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrEmailSendFailure   = errors.New("email send failed")
	ErrRateLimited        = errors.New("rate limited")
	ErrInvalidEmail       = errors.New("invalid email")
)

// ResetRequestMessage es la respuesta unica a un pedido de reset, exista o no el email.
const ResetRequestMessage = "If an account exists for that email, a password reset link has been sent."

const providerSessionPrefix = "auth:provider:"

// AuthService coordina registro, login, verificacion y reset de password.
type AuthService struct {
	logger           *zap.Logger
	users            repository.UserRepository
	sessions         *JWTService
	verifications    *VerificationTokenService
	resets           *ResetTokenService
	providerSessions kv.Store
	provider         authprovider.Provider
	emailSender      email.Sender
	limiter          EmailRateLimiter
	baseURL          string
}

type AuthServiceDeps struct {
	Logger        *zap.Logger
	Users         repository.UserRepository
	Sessions      *JWTService
	Verifications *VerificationTokenService
	Resets        *ResetTokenService
	// KV guarda el access token del proveedor externo por sesion.
	KV          kv.Store
	Provider    authprovider.Provider
	EmailSender email.Sender
	Limiter     EmailRateLimiter
	// BaseURL es el prefijo publico usado en los links de los emails.
	BaseURL string
}

func NewAuthService(deps AuthServiceDeps) *AuthService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.KV == nil {
		deps.KV = kv.NewMemoryStore()
	}
	if deps.Limiter == nil {
		deps.Limiter = NewEmailRateLimiter(10*time.Minute, 3)
	}
	if deps.EmailSender == nil {
		deps.EmailSender = email.NewLogSender(deps.Logger)
	}
	if deps.Resets == nil {
		deps.Resets = NewResetTokenService(deps.KV)
	}
	return &AuthService{
		logger:           deps.Logger,
		users:            deps.Users,
		sessions:         deps.Sessions,
		verifications:    deps.Verifications,
		resets:           deps.Resets,
		providerSessions: deps.KV,
		provider:         deps.Provider,
		emailSender:      deps.EmailSender,
		limiter:          deps.Limiter,
		baseURL:          strings.TrimRight(deps.BaseURL, "/"),
	}
}

type LoginResult struct {
	User   domain.User
	Tokens TokenPair
}

type ProfileUpdateInput struct {
	Email           string
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
}

type ProfileUpdateResult struct {
	User            domain.User
	EmailChanged    bool
	PasswordChanged bool
}

// Register crea el usuario sin verificar y envia el link de verificacion.
func (s *AuthService) Register(ctx context.Context, emailAddr, password string) (domain.User, error) {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return domain.User{}, ErrInvalidEmail
	}
	if password == "" {
		return domain.User{}, ErrInvalidPassword
	}
	if _, found := s.lookupByEmail(ctx, emailAddr); found {
		return domain.User{}, ErrEmailTaken
	}

	hash, err := hashPassword(password)
	if err != nil {
		return domain.User{}, err
	}
	user := domain.User{
		Email:        emailAddr,
		PasswordHash: hash,
	}
	if err := s.users.Save(ctx, &user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.User{}, ErrEmailTaken
		}
		s.logger.Error("register save failed", zap.Error(err))
		return domain.User{}, err
	}

	_ = s.sendVerification(ctx, emailAddr, false)

	if s.provider != nil {
		if err := s.provider.SignUp(ctx, emailAddr, password); err != nil {
			s.logger.Warn("provider sign up failed", zap.String("email", emailAddr), zap.Error(err))
		}
	}
	return user, nil
}

// Login autentica contra el hash local o, como fallback, contra el proveedor externo.
func (s *AuthService) Login(ctx context.Context, emailAddr, password string) (LoginResult, error) {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" || password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	user, found := s.lookupByEmail(ctx, emailAddr)
	var providerToken string
	switch {
	case !found:
		session, ok := s.providerSignIn(ctx, emailAddr, password)
		if !ok {
			return LoginResult{}, ErrInvalidCredentials
		}
		synced, err := s.syncProviderUser(ctx, session.User.Email)
		if err != nil {
			return LoginResult{}, err
		}
		user = synced
		providerToken = session.AccessToken
	case user.IsExternal():
		session, ok := s.providerSignIn(ctx, emailAddr, password)
		if !ok {
			return LoginResult{}, ErrInvalidCredentials
		}
		providerToken = session.AccessToken
	default:
		if !checkPassword(user.PasswordHash, password) {
			return LoginResult{}, ErrInvalidCredentials
		}
	}

	if !user.EmailVerified {
		return LoginResult{}, ErrEmailNotVerified
	}

	sessionID := uuid.NewString()
	tokens, err := s.sessions.GeneratePair(ctx, user, sessionID)
	if err != nil {
		return LoginResult{}, err
	}
	if providerToken != "" {
		if err := s.providerSessions.Set(ctx, providerSessionPrefix+sessionID, providerToken, s.sessions.RefreshTTL()); err != nil {
			s.logger.Warn("store provider session failed", zap.Error(err))
		}
	}
	return LoginResult{User: user, Tokens: tokens}, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	return s.sessions.RefreshPair(ctx, refreshToken)
}

// VerifyEmail marca como verificado al usuario del token. Es idempotente.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (domain.User, error) {
	emailAddr, err := s.verifications.Verify(token)
	if err != nil {
		return domain.User{}, err
	}
	user, found := s.lookupByEmail(ctx, emailAddr)
	if !found {
		return domain.User{}, ErrUserNotFound
	}
	user.EmailVerified = true
	if err := s.users.Save(ctx, &user); err != nil {
		s.logger.Error("verify save failed", zap.Int64("user_id", user.ID), zap.Error(err))
		return domain.User{}, err
	}
	return user, nil
}

func (s *AuthService) ResendVerification(ctx context.Context, emailAddr string) error {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return ErrInvalidEmail
	}
	if !s.limiter.Allow("verify:" + emailAddr) {
		return ErrRateLimited
	}
	if err := s.sendVerification(ctx, emailAddr, false); err != nil {
		return ErrEmailSendFailure
	}
	return nil
}

// RequestPasswordReset responde siempre ResetRequestMessage.
func (s *AuthService) RequestPasswordReset(ctx context.Context, emailAddr string) string {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return ResetRequestMessage
	}
	user, found := s.lookupByEmail(ctx, emailAddr)
	if !found {
		return ResetRequestMessage
	}
	if !s.limiter.Allow("reset:" + emailAddr) {
		s.logger.Info("password reset rate limited", zap.Int64("user_id", user.ID))
		return ResetRequestMessage
	}

	token, err := s.resets.Issue(ctx, user.Email)
	if err != nil {
		s.logger.Error("issue reset token failed", zap.Error(err))
		return ResetRequestMessage
	}
	subject, body := resetEmail(s.baseURL + "/auth/password/reset/" + token)
	if err := s.emailSender.Send(ctx, user.Email, subject, body); err != nil {
		s.logger.Warn("reset email send failed", zap.Int64("user_id", user.ID), zap.Error(err))
	}
	if s.provider != nil {
		if err := s.provider.ResetPasswordEmail(ctx, user.Email); err != nil {
			s.logger.Warn("provider reset email failed", zap.Error(err))
		}
	}
	return ResetRequestMessage
}

// ConfirmPasswordReset cambia el password y consume el token solo si todo salio bien.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, password, confirm string) error {
	emailAddr, err := s.resets.Redeem(ctx, token)
	if err != nil {
		return err
	}
	if password == "" {
		return ErrInvalidPassword
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	user, found := s.lookupByEmail(ctx, emailAddr)
	if !found {
		return ErrUserNotFound
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.users.Save(ctx, &user); err != nil {
		s.logger.Error("reset save failed", zap.Int64("user_id", user.ID), zap.Error(err))
		return err
	}
	if err := s.resets.Consume(ctx, token); err != nil {
		s.logger.Warn("consume reset token failed", zap.Error(err))
	}
	return nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, sessionID string, input ProfileUpdateInput) (ProfileUpdateResult, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ProfileUpdateResult{}, ErrUserNotFound
		}
		return ProfileUpdateResult{}, err
	}
	if !s.verifyPassword(ctx, user, input.CurrentPassword) {
		return ProfileUpdateResult{}, ErrInvalidCredentials
	}

	var result ProfileUpdateResult
	newEmail := normalizeEmail(input.Email)
	if newEmail != "" && newEmail != user.Email {
		if existing, found := s.lookupByEmail(ctx, newEmail); found && existing.ID != user.ID {
			return ProfileUpdateResult{}, ErrEmailTaken
		}
		user.Email = newEmail
		user.EmailVerified = false
		result.EmailChanged = true
	}
	if input.NewPassword != "" {
		if input.NewPassword != input.ConfirmPassword {
			return ProfileUpdateResult{}, ErrPasswordMismatch
		}
		hash, err := hashPassword(input.NewPassword)
		if err != nil {
			return ProfileUpdateResult{}, err
		}
		user.PasswordHash = hash
		result.PasswordChanged = true
	}

	if result.EmailChanged || result.PasswordChanged {
		if err := s.users.Save(ctx, &user); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ProfileUpdateResult{}, ErrEmailTaken
			}
			s.logger.Error("profile save failed", zap.Int64("user_id", user.ID), zap.Error(err))
			return ProfileUpdateResult{}, err
		}
	}
	if result.EmailChanged {
		_ = s.sendVerification(ctx, user.Email, true)
	}
	if result.PasswordChanged && s.provider != nil {
		if token, ok := s.providerToken(ctx, sessionID); ok {
			if err := s.provider.UpdatePassword(ctx, token, input.NewPassword); err != nil {
				s.logger.Warn("provider password update failed", zap.Error(err))
			}
		}
	}
	result.User = user
	return result, nil
}

// Logout revoca el refresh token y cierra la sesion del proveedor si existe.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.sessions.RevokeRefresh(ctx, refreshToken)
	if err != nil {
		return err
	}
	token, ok := s.providerToken(ctx, claims.SessionID)
	if !ok {
		return nil
	}
	if s.provider != nil {
		if err := s.provider.SignOut(ctx, token); err != nil {
			s.logger.Warn("provider sign out failed", zap.Error(err))
		}
	}
	if err := s.providerSessions.Delete(ctx, providerSessionPrefix+claims.SessionID); err != nil {
		s.logger.Warn("delete provider session failed", zap.Error(err))
	}
	return nil
}

// CurrentUser carga el usuario de la sesion; si no existe localmente usa la sesion del proveedor.
func (s *AuthService) CurrentUser(ctx context.Context, claims Claims) (domain.User, error) {
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn("user lookup failed", zap.Int64("user_id", claims.UserID), zap.Error(err))
	}
	if s.provider == nil {
		return domain.User{}, ErrUserNotFound
	}
	token, ok := s.providerToken(ctx, claims.SessionID)
	if !ok {
		return domain.User{}, ErrUserNotFound
	}
	remote, err := s.provider.GetUser(ctx, token)
	if err != nil {
		s.logger.Warn("provider get user failed", zap.Error(err))
		return domain.User{}, ErrUserNotFound
	}
	return domain.User{
		ID:            claims.UserID,
		Email:         remote.Email,
		PasswordHash:  domain.ExternalPasswordMarker,
		EmailVerified: true,
	}, nil
}

// lookupByEmail trata fallos del backend como ausencia, dejando constancia en el log.
func (s *AuthService) lookupByEmail(ctx context.Context, emailAddr string) (domain.User, bool) {
	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err == nil {
		return user, true
	}
	if !errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn("user lookup failed", zap.String("email", emailAddr), zap.Error(err))
	}
	return domain.User{}, false
}

func (s *AuthService) providerSignIn(ctx context.Context, emailAddr, password string) (authprovider.Session, bool) {
	if s.provider == nil {
		return authprovider.Session{}, false
	}
	session, err := s.provider.SignIn(ctx, emailAddr, password)
	if err != nil {
		if !errors.Is(err, authprovider.ErrInvalidCredentials) {
			s.logger.Warn("provider sign in failed", zap.Error(err))
		}
		return authprovider.Session{}, false
	}
	return session, true
}

// syncProviderUser crea el registro local para un usuario autenticado por el proveedor.
func (s *AuthService) syncProviderUser(ctx context.Context, emailAddr string) (domain.User, error) {
	user := domain.User{
		Email:         normalizeEmail(emailAddr),
		PasswordHash:  domain.ExternalPasswordMarker,
		EmailVerified: true,
	}
	err := s.users.Save(ctx, &user)
	if err == nil {
		return user, nil
	}
	if errors.Is(err, repository.ErrDuplicate) {
		if existing, found := s.lookupByEmail(ctx, user.Email); found {
			return existing, nil
		}
	}
	s.logger.Error("sync provider user failed", zap.Error(err))
	return domain.User{}, err
}

func (s *AuthService) verifyPassword(ctx context.Context, user domain.User, password string) bool {
	if password == "" {
		return false
	}
	if user.IsExternal() {
		_, ok := s.providerSignIn(ctx, user.Email, password)
		return ok
	}
	return checkPassword(user.PasswordHash, password)
}

func (s *AuthService) providerToken(ctx context.Context, sessionID string) (string, bool) {
	if strings.TrimSpace(sessionID) == "" {
		return "", false
	}
	token, ok, err := s.providerSessions.Get(ctx, providerSessionPrefix+sessionID)
	if err != nil {
		s.logger.Warn("load provider session failed", zap.Error(err))
		return "", false
	}
	return token, ok
}

func (s *AuthService) sendVerification(ctx context.Context, to string, newAddress bool) error {
	token, err := s.verifications.Issue(to)
	if err != nil {
		s.logger.Error("issue verification token failed", zap.Error(err))
		return err
	}
	subject, body := verificationEmail(s.baseURL+"/auth/verify/"+token, newAddress)
	if err := s.emailSender.Send(ctx, to, subject, body); err != nil {
		s.logger.Warn("verification email send failed", zap.String("email", to), zap.Error(err))
		return err
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashBytes), nil
}

func checkPassword(hash, password string) bool {
	if hash == "" || hash == domain.ExternalPasswordMarker {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// normalizeEmail solo recorta espacios: el email se compara tal como se guardo.
func normalizeEmail(emailAddr string) string {
	return strings.TrimSpace(emailAddr)
}
