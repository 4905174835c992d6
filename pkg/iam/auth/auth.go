package auth

import (
	"net/http"
	"time"

	"github.com/Abraxas-365/hireflow/pkg/errx"
	"github.com/Abraxas-365/hireflow/pkg/kernel"
)

// TokenService emite y valida los tokens de la API
type TokenService interface {
	GenerateAccessToken(ac *kernel.AuthContext) (string, error)
	ValidateAccessToken(token string) (*TokenClaims, error)
	GenerateRefreshToken(userID kernel.UserID) (string, error)
	ValidateRefreshToken(token string) (kernel.UserID, error)
	AccessTokenTTL() time.Duration
	RefreshTokenTTL() time.Duration
}

// TokenClaims es la vista decodificada de un access token
type TokenClaims struct {
	UserID    kernel.UserID
	Email     string
	Name      string
	Role      kernel.Role
	Scopes    []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func (tc *TokenClaims) AuthContext() *kernel.AuthContext {
	return &kernel.AuthContext{
		UserID: tc.UserID,
		Email:  tc.Email,
		Name:   tc.Name,
		Role:   tc.Role,
		Scopes: tc.Scopes,
	}
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("AUTH")

var (
	CodeTokenGenerationFailed = ErrRegistry.Register("TOKEN_GENERATION_FAILED", errx.TypeInternal, http.StatusInternalServerError, "No se pudo generar el token")
	CodeTokenValidationFailed = ErrRegistry.Register("TOKEN_VALIDATION_FAILED", errx.TypeAuthorization, http.StatusUnauthorized, "Token inválido o expirado")
	CodeInvalidRefreshToken   = ErrRegistry.Register("INVALID_REFRESH_TOKEN", errx.TypeAuthorization, http.StatusUnauthorized, "Refresh token inválido")
	CodeInvalidRequest        = ErrRegistry.Register("INVALID_REQUEST", errx.TypeValidation, http.StatusBadRequest, "Solicitud inválida")
)

func ErrTokenGenerationFailed() *errx.Error {
	return ErrRegistry.New(CodeTokenGenerationFailed)
}

func ErrTokenValidationFailed() *errx.Error {
	return ErrRegistry.New(CodeTokenValidationFailed)
}

func ErrInvalidRefreshToken() *errx.Error {
	return ErrRegistry.New(CodeInvalidRefreshToken)
}

func ErrInvalidRequest() *errx.Error {
	return ErrRegistry.New(CodeInvalidRequest)
}
