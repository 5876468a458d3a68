// Package authprovider habla con un proveedor de identidad externo compatible con GoTrue (Supabase Auth).
package authprovider

import (
	"context"
	"errors"
)

var (
	ErrInvalidCredentials = errors.New("provider rejected credentials")
	ErrUnauthorized       = errors.New("provider session invalid")
)

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type Session struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

// Provider es el conjunto de capacidades usadas del proveedor externo.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (Session, error)
	SignUp(ctx context.Context, email, password string) error
	SignOut(ctx context.Context, accessToken string) error
	GetUser(ctx context.Context, accessToken string) (User, error)
	ResetPasswordEmail(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, accessToken, password string) error
}
