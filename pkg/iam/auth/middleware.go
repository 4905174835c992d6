package auth

import (
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Abraxas-365/hireflow/pkg/iam"
	"github.com/Abraxas-365/hireflow/pkg/kernel"
)

const localsAuthKey = "auth"

type AuthMiddleware struct {
	tokenService TokenService
	cookieName   string
}

func NewAuthMiddleware(tokenService TokenService, cookieName string) *AuthMiddleware {
	if cookieName == "" {
		cookieName = "access_token"
	}
	return &AuthMiddleware{
		tokenService: tokenService,
		cookieName:   cookieName,
	}
}

// Authenticate acepta un Bearer token o la cookie de access token
func (am *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractBearer(c.Get("Authorization"))
		if token == "" {
			token = c.Cookies(am.cookieName)
		}

		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": iam.ErrUnauthorized().Error(),
				"code":  iam.CodeUnauthorized,
			})
		}

		claims, err := am.tokenService.ValidateAccessToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": err.Error(),
				"code":  CodeTokenValidationFailed,
			})
		}

		authContext := claims.AuthContext()
		if !authContext.IsValid() {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": iam.ErrUnauthorized().Error(),
				"code":  iam.CodeUnauthorized,
			})
		}

		c.Locals(localsAuthKey, authContext)
		return c.Next()
	}
}

// RequireScope - Requires a specific scope
func (am *AuthMiddleware) RequireScope(scope string) fiber.Handler {
	return am.RequireAnyScope(scope)
}

// RequireAnyScope - Requires any of the provided scopes
func (am *AuthMiddleware) RequireAnyScope(scopes ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authContext, ok := GetAuthContext(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
				"code":  iam.CodeUnauthorized,
			})
		}

		if !authContext.HasAnyScope(scopes...) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":           "Insufficient permissions",
				"code":            iam.CodeForbidden,
				"required_scopes": scopes,
			})
		}

		return c.Next()
	}
}

// RequireRole - Only users holding one of the given roles
func (am *AuthMiddleware) RequireRole(roles ...kernel.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authContext, ok := GetAuthContext(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
				"code":  iam.CodeUnauthorized,
			})
		}

		if !slices.Contains(roles, authContext.Role) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":          "Insufficient permissions",
				"code":           iam.CodeForbidden,
				"required_roles": roles,
			})
		}

		return c.Next()
	}
}

func extractBearer(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// GetAuthContext helper to extract auth context from Fiber
func GetAuthContext(c *fiber.Ctx) (*kernel.AuthContext, bool) {
	authContext, ok := c.Locals(localsAuthKey).(*kernel.AuthContext)
	return authContext, ok && authContext != nil && authContext.IsValid()
}

// SetAuthContext places an identity on the request, as Authenticate does.
func SetAuthContext(c *fiber.Ctx, ac *kernel.AuthContext) {
	c.Locals(localsAuthKey, ac)
}
