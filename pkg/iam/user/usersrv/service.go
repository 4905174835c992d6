package usersrv

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Abraxas-365/hireflow/pkg/errx"
	"github.com/Abraxas-365/hireflow/pkg/iam/user"
	"github.com/Abraxas-365/hireflow/pkg/kernel"
	"github.com/Abraxas-365/hireflow/pkg/logx"
)

// UserService proporciona operaciones de negocio para usuarios
type UserService struct {
	userRepo    user.UserRepository
	passwordSvc user.PasswordService
	now         func() time.Time
}

// NewUserService crea una nueva instancia del servicio de usuarios
func NewUserService(userRepo user.UserRepository, passwordSvc user.PasswordService) *UserService {
	return &UserService{
		userRepo:    userRepo,
		passwordSvc: passwordSvc,
		now:         time.Now,
	}
}

// CreateUser crea un nuevo usuario con contraseña
func (s *UserService) CreateUser(ctx context.Context, req user.CreateUserRequest) (*user.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, errx.Wrap(err, "failed to check email existence", errx.TypeInternal)
	}
	if exists {
		return nil, user.ErrUserAlreadyExists().WithDetail("email", req.Email)
	}

	hash, err := s.passwordSvc.HashPassword(req.Password)
	if err != nil {
		return nil, errx.Wrap(err, "failed to hash password", errx.TypeInternal)
	}

	now := s.now()
	newUser := &user.User{
		ID:           kernel.NewUserID(uuid.NewString()),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         req.Role,
		Scopes:       pq.StringArray(req.Scopes),
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Save(ctx, *newUser); err != nil {
		return nil, err
	}

	logx.WithFields(logx.Fields{"user_id": newUser.ID, "role": newUser.Role}).Info("user created")
	return newUser, nil
}

// GetUser obtiene un usuario por ID
func (s *UserService) GetUser(ctx context.Context, id kernel.UserID) (*user.User, error) {
	return s.userRepo.FindByID(ctx, id)
}

// ListUsers devuelve todos los usuarios
func (s *UserService) ListUsers(ctx context.Context) (*user.UserListResponse, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	dtos := make([]user.UserDetailsDTO, 0, len(users))
	for i := range users {
		dtos = append(dtos, users[i].ToDTO())
	}

	return &user.UserListResponse{Users: dtos, Total: len(dtos)}, nil
}

// Authenticate valida email y contraseña. Un email desconocido y una
// contraseña incorrecta producen el mismo error.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*user.User, error) {
	req := user.CreateUserRequest{Email: email}
	req.Normalize()

	u, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errx.Is(err, user.CodeUserNotFound) {
			return nil, user.ErrInvalidCredentials()
		}
		return nil, err
	}

	if !s.passwordSvc.VerifyPassword(u.PasswordHash, password) {
		return nil, user.ErrInvalidCredentials()
	}
	if !u.CanLogin() {
		return nil, user.ErrUserInactive().WithDetail("user_id", u.ID.String())
	}

	u.UpdateLastLogin(s.now())
	if err := s.userRepo.Save(ctx, *u); err != nil {
		logx.WithError(err).Warn("failed to record last login")
	}

	return u, nil
}

// EnsureMaster crea el usuario MASTER inicial si el email aún no existe
func (s *UserService) EnsureMaster(ctx context.Context, email, name, password string) error {
	if email == "" || password == "" {
		return nil
	}
	_, err := s.CreateUser(ctx, user.CreateUserRequest{
		Email:    email,
		Name:     name,
		Password: password,
		Role:     kernel.RoleMaster,
	})
	if errx.Is(err, user.CodeUserAlreadyExists) {
		return nil
	}
	return err
}
