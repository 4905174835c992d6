package user

import (
	"net/http"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/Abraxas-365/hireflow/pkg/errx"
	"github.com/Abraxas-365/hireflow/pkg/iam/scopes"
	"github.com/Abraxas-365/hireflow/pkg/kernel"
)

// ============================================================================
// User Entity
// ============================================================================

// User es un miembro del equipo de reclutamiento
type User struct {
	ID           kernel.UserID  `db:"id" json:"id"`
	Email        string         `db:"email" json:"email"`
	Name         string         `db:"name" json:"name"`
	PasswordHash string         `db:"password_hash" json:"-"`
	Role         kernel.Role    `db:"role" json:"role"`
	Scopes       pq.StringArray `db:"scopes" json:"scopes"`
	Active       bool           `db:"active" json:"active"`
	LastLoginAt  *time.Time     `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// ============================================================================
// Domain Methods
// ============================================================================

// EffectiveScopes devuelve los scopes explícitos o, si no hay, la plantilla del rol
func (u *User) EffectiveScopes() []string {
	if len(u.Scopes) > 0 {
		return []string(u.Scopes)
	}
	return scopes.ForRole(u.Role)
}

// CanLogin verifica si el usuario puede iniciar sesión
func (u *User) CanLogin() bool {
	return u.Active && u.PasswordHash != ""
}

// UpdateLastLogin actualiza la fecha del último login
func (u *User) UpdateLastLogin(at time.Time) {
	u.LastLoginAt = &at
	u.UpdatedAt = at
}

func (u *User) Viewer() kernel.Viewer {
	return kernel.Viewer{ID: u.ID, Role: u.Role}
}

// AuthContext construye la identidad que viaja en el token
func (u *User) AuthContext() *kernel.AuthContext {
	return &kernel.AuthContext{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Role:   u.Role,
		Scopes: u.EffectiveScopes(),
	}
}

// ============================================================================
// DTOs
// ============================================================================

// UserDetailsDTO contiene información básica de un usuario para otros módulos
type UserDetailsDTO struct {
	ID     kernel.UserID `json:"id"`
	Name   string        `json:"name"`
	Email  string        `json:"email"`
	Role   kernel.Role   `json:"role"`
	Active bool          `json:"active"`
	Scopes []string      `json:"scopes"`
}

func (u *User) ToDTO() UserDetailsDTO {
	return UserDetailsDTO{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Role:   u.Role,
		Active: u.Active,
		Scopes: u.EffectiveScopes(),
	}
}

// CreateUserRequest representa la petición para crear un usuario
type CreateUserRequest struct {
	Email    string      `json:"email"`
	Name     string      `json:"name"`
	Password string      `json:"password"`
	Role     kernel.Role `json:"role"`
	Scopes   []string    `json:"scopes,omitempty"`
}

func (r *CreateUserRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Name = strings.TrimSpace(r.Name)
}

func (r CreateUserRequest) Validate() error {
	if r.Email == "" || !strings.Contains(r.Email, "@") {
		return ErrInvalidUser().WithDetail("field", "email")
	}
	if r.Name == "" {
		return ErrInvalidUser().WithDetail("field", "name")
	}
	if len(r.Password) < 8 {
		return ErrInvalidUser().WithDetail("field", "password").WithDetail("min_length", 8)
	}
	if !r.Role.Valid() {
		return ErrInvalidUser().WithDetail("field", "role").WithDetail("role", r.Role)
	}
	for _, s := range r.Scopes {
		if !scopes.ValidateScope(s) {
			return ErrInvalidScopes().WithDetail("scope", s)
		}
	}
	return nil
}

// UserListResponse para listas de usuarios
type UserListResponse struct {
	Users []UserDetailsDTO `json:"users"`
	Total int              `json:"total"`
}

// ============================================================================
// Error Registry - Errores específicos de User
// ============================================================================

var ErrRegistry = errx.NewRegistry("USER")

var (
	CodeUserNotFound       = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Usuario no encontrado")
	CodeUserAlreadyExists  = ErrRegistry.Register("ALREADY_EXISTS", errx.TypeConflict, http.StatusConflict, "El usuario ya existe")
	CodeInvalidUser        = ErrRegistry.Register("INVALID", errx.TypeValidation, http.StatusBadRequest, "Datos de usuario inválidos")
	CodeInvalidScopes      = ErrRegistry.Register("INVALID_SCOPES", errx.TypeValidation, http.StatusBadRequest, "Scopes inválidos")
	CodeInvalidCredentials = ErrRegistry.Register("INVALID_CREDENTIALS", errx.TypeAuthorization, http.StatusUnauthorized, "Credenciales inválidas")
	CodeUserInactive       = ErrRegistry.Register("INACTIVE", errx.TypeBusiness, http.StatusForbidden, "Usuario inactivo")
)

func ErrUserNotFound() *errx.Error {
	return ErrRegistry.New(CodeUserNotFound)
}

func ErrUserAlreadyExists() *errx.Error {
	return ErrRegistry.New(CodeUserAlreadyExists)
}

func ErrInvalidUser() *errx.Error {
	return ErrRegistry.New(CodeInvalidUser)
}

func ErrInvalidScopes() *errx.Error {
	return ErrRegistry.New(CodeInvalidScopes)
}

func ErrInvalidCredentials() *errx.Error {
	return ErrRegistry.New(CodeInvalidCredentials)
}

func ErrUserInactive() *errx.Error {
	return ErrRegistry.New(CodeUserInactive)
}
