package domain

import "time"

// ExternalPasswordMarker reemplaza el hash local de usuarios creados desde el proveedor externo.
// No es un hash bcrypt valido, por lo que nunca coincide con una password local.
const ExternalPasswordMarker = "!external-provider"

type User struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

// IsExternal indica si el usuario se autentica contra el proveedor externo.
func (u User) IsExternal() bool {
	return u.PasswordHash == ExternalPasswordMarker
}
