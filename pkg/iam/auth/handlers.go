package auth

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Abraxas-365/hireflow/pkg/config"
	"github.com/Abraxas-365/hireflow/pkg/iam"
	"github.com/Abraxas-365/hireflow/pkg/iam/user"
	"github.com/Abraxas-365/hireflow/pkg/kernel"
)

// UserAuthenticator is the slice of the user service the handlers need
type UserAuthenticator interface {
	Authenticate(ctx context.Context, email, password string) (*user.User, error)
	GetUser(ctx context.Context, id kernel.UserID) (*user.User, error)
}

// AuthHandlers maneja las rutas de autenticación con Fiber
type AuthHandlers struct {
	users        UserAuthenticator
	tokenService TokenService
	cookie       config.CookieConfig
}

// NewAuthHandlers crea un nuevo handler de autenticación
func NewAuthHandlers(users UserAuthenticator, tokenService TokenService, cookie config.CookieConfig) *AuthHandlers {
	return &AuthHandlers{
		users:        users,
		tokenService: tokenService,
		cookie:       cookie,
	}
}

// LoginRequest credenciales de acceso
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse respuesta con tokens de autenticación
type TokenResponse struct {
	AccessToken  string              `json:"access_token"`
	RefreshToken string              `json:"refresh_token"`
	TokenType    string              `json:"token_type"`
	ExpiresIn    int                 `json:"expires_in"`
	User         user.UserDetailsDTO `json:"user"`
}

// RefreshTokenRequest estructura para renovar token
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RegisterRoutes registers the auth routes on Fiber
func (ah *AuthHandlers) RegisterRoutes(router fiber.Router, authMiddleware *AuthMiddleware) {
	auth := router.Group("/auth")

	auth.Post("/login", ah.Login)
	auth.Post("/refresh", ah.RefreshToken)
	auth.Post("/logout", ah.Logout)
	auth.Get("/me", authMiddleware.Authenticate(), ah.GetCurrentUser)
}

// Login autentica con email y contraseña
func (ah *AuthHandlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrInvalidRequest().WithDetail("error", "invalid request body")
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return ErrInvalidRequest().WithDetail("error", "email and password are required")
	}

	u, err := ah.users.Authenticate(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return ah.issueTokens(c, u)
}

// RefreshToken renueva un access token usando refresh token
func (ah *AuthHandlers) RefreshToken(c *fiber.Ctx) error {
	var req RefreshTokenRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return ErrInvalidRequest().WithDetail("error", "invalid request body")
		}
	}

	// Alternativamente, obtener refresh token de cookie
	if req.RefreshToken == "" {
		req.RefreshToken = c.Cookies(ah.cookie.RefreshTokenName)
	}
	if req.RefreshToken == "" {
		return ErrInvalidRequest().WithDetail("error", "refresh_token is required")
	}

	userID, err := ah.tokenService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return err
	}

	// Role and scopes are re-read so changes apply on the next refresh
	u, err := ah.users.GetUser(c.Context(), userID)
	if err != nil {
		return ErrInvalidRefreshToken().WithDetail("user_id", userID.String())
	}
	if !u.CanLogin() {
		return user.ErrUserInactive().WithDetail("user_id", u.ID.String())
	}

	return ah.issueTokens(c, u)
}

// Logout borra las cookies de sesión
func (ah *AuthHandlers) Logout(c *fiber.Ctx) error {
	for _, name := range []string{ah.cookie.AccessTokenName, ah.cookie.RefreshTokenName} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Expires:  time.Unix(0, 0),
			HTTPOnly: ah.cookie.HTTPOnly,
			Secure:   ah.cookie.Secure,
			SameSite: ah.cookie.SameSite,
			Domain:   ah.cookie.Domain,
			Path:     ah.cookie.Path,
		})
	}
	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

// GetCurrentUser devuelve el usuario autenticado
func (ah *AuthHandlers) GetCurrentUser(c *fiber.Ctx) error {
	authContext, ok := GetAuthContext(c)
	if !ok {
		return iam.ErrUnauthorized()
	}

	u, err := ah.users.GetUser(c.Context(), authContext.UserID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"user":   u.ToDTO(),
		"scopes": authContext.Scopes,
	})
}

func (ah *AuthHandlers) issueTokens(c *fiber.Ctx, u *user.User) error {
	accessToken, err := ah.tokenService.GenerateAccessToken(u.AuthContext())
	if err != nil {
		return err
	}

	refreshToken, err := ah.tokenService.GenerateRefreshToken(u.ID)
	if err != nil {
		return err
	}

	now := time.Now()

	// Set cookies for browser-based apps
	c.Cookie(&fiber.Cookie{
		Name:     ah.cookie.AccessTokenName,
		Value:    accessToken,
		Expires:  now.Add(ah.tokenService.AccessTokenTTL()),
		HTTPOnly: ah.cookie.HTTPOnly,
		Secure:   ah.cookie.Secure,
		SameSite: ah.cookie.SameSite,
		Domain:   ah.cookie.Domain,
		Path:     ah.cookie.Path,
	})
	c.Cookie(&fiber.Cookie{
		Name:     ah.cookie.RefreshTokenName,
		Value:    refreshToken,
		Expires:  now.Add(ah.tokenService.RefreshTokenTTL()),
		HTTPOnly: ah.cookie.HTTPOnly,
		Secure:   ah.cookie.Secure,
		SameSite: ah.cookie.SameSite,
		Domain:   ah.cookie.Domain,
		Path:     ah.cookie.Path,
	})

	return c.JSON(TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(ah.tokenService.AccessTokenTTL() / time.Second),
		User:         u.ToDTO(),
	})
}
