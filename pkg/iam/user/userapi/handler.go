package userapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Abraxas-365/hireflow/pkg/iam/auth"
	"github.com/Abraxas-365/hireflow/pkg/iam/scopes"
	"github.com/Abraxas-365/hireflow/pkg/iam/user"
	"github.com/Abraxas-365/hireflow/pkg/iam/user/usersrv"
	"github.com/Abraxas-365/hireflow/pkg/kernel"
)

type UserHandlers struct {
	service *usersrv.UserService
}

func NewUserHandlers(service *usersrv.UserService) *UserHandlers {
	return &UserHandlers{service: service}
}

func (h *UserHandlers) RegisterRoutes(router fiber.Router, authMiddleware *auth.AuthMiddleware) {
	users := router.Group("/users", authMiddleware.Authenticate())

	users.Get("/", authMiddleware.RequireScope(scopes.ScopeUsersRead), h.ListUsers)
	users.Post("/", authMiddleware.RequireScope(scopes.ScopeUsersWrite), h.CreateUser)
	users.Get("/scopes", authMiddleware.RequireScope(scopes.ScopeUsersRead), h.ListScopes)
	users.Get("/:id", authMiddleware.RequireScope(scopes.ScopeUsersRead), h.GetUser)
}

func (h *UserHandlers) ListUsers(c *fiber.Ctx) error {
	response, err := h.service.ListUsers(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(response)
}

// CreateUser da de alta un usuario; solo MASTER tiene users:write por defecto
func (h *UserHandlers) CreateUser(c *fiber.Ctx) error {
	var req user.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return user.ErrInvalidUser().WithDetail("error", "invalid request body")
	}

	created, err := h.service.CreateUser(c.Context(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created.ToDTO())
}

// ListScopes devuelve el catálogo de scopes, o la plantilla expandida de ?role=
func (h *UserHandlers) ListScopes(c *fiber.Ctx) error {
	role := kernel.Role(c.Query("role"))
	if role == "" {
		return c.JSON(fiber.Map{"scopes": scopes.Catalog()})
	}
	if !role.Valid() {
		return user.ErrInvalidUser().WithDetail("role", role)
	}
	return c.JSON(fiber.Map{"role": role, "scopes": scopes.Describe(scopes.ForRole(role))})
}

func (h *UserHandlers) GetUser(c *fiber.Ctx) error {
	found, err := h.service.GetUser(c.Context(), kernel.UserID(c.Params("id")))
	if err != nil {
		return err
	}
	return c.JSON(found.ToDTO())
}
