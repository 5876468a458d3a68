package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired = errors.New("verification token expired")
	ErrTokenInvalid = errors.New("verification token invalid")
)

const (
	verificationPurpose = "email-verification"
	verificationMaxAge  = 24 * time.Hour
)

type verificationClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// VerificationTokenService firma tokens de verificacion de email sin estado.
// Un token emitido hace mas de 24h se rechaza como expirado.
type VerificationTokenService struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

func NewVerificationTokenService(secret string) *VerificationTokenService {
	return &VerificationTokenService{
		secret: []byte(secret),
		maxAge: verificationMaxAge,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *VerificationTokenService) Issue(email string) (string, error) {
	email = strings.TrimSpace(email)
	if len(s.secret) == 0 || email == "" {
		return "", ErrTokenInvalid
	}
	claims := verificationClaims{
		Purpose: verificationPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  email,
			IssuedAt: jwt.NewNumericDate(s.now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify devuelve el email firmado en el token.
func (s *VerificationTokenService) Verify(token string) (string, error) {
	if len(s.secret) == 0 || strings.TrimSpace(token) == "" {
		return "", ErrTokenInvalid
	}
	var claims verificationClaims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(s.now),
		jwt.WithIssuedAt(),
	)
	_, err := parser.ParseWithClaims(token, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return "", ErrTokenInvalid
	}
	if claims.Purpose != verificationPurpose || strings.TrimSpace(claims.Subject) == "" || claims.IssuedAt == nil {
		return "", ErrTokenInvalid
	}
	if s.now().Sub(claims.IssuedAt.Time) > s.maxAge {
		return "", ErrTokenExpired
	}
	return claims.Subject, nil
}
