package services

import (
	"context"

	"fnh-backend/internal/apperrors"
	"fnh-backend/internal/auth"
	"fnh-backend/internal/models"
	"fnh-backend/internal/repositories"
)

// Staff roles. Admins manage users and see the audit trail, the front
// desk runs the day-to-day billing, accountants read the books.
var validRoles = map[string]bool{
	"admin":      true,
	"frontdesk":  true,
	"accountant": true,
}

type UserService struct {
	Repo       *repositories.UserRepository
	JWTManager *auth.JWTManager
}

func NewUserService(repo *repositories.UserRepository, jwtManager *auth.JWTManager) *UserService {
	return &UserService{
		Repo:       repo,
		JWTManager: jwtManager,
	}
}

func (s *UserService) CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return nil, apperrors.Validationf("name, email, and password are required")
	}
	if req.Role != "" && !validRoles[req.Role] {
		return nil, apperrors.Validationf("unknown role %q", req.Role)
	}

	if existing, _ := s.Repo.GetByEmail(ctx, req.Email); existing != nil && existing.ID != 0 {
		return nil, apperrors.Validationf("user with this email already exists")
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hashedPassword,
		Role:         req.Role,
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id int) (*models.User, error) {
	return s.Repo.Get(ctx, id)
}

// ListUsers returns all users
func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.Repo.List(ctx)
}

// UpdateUser updates an existing user
func (s *UserService) UpdateUser(ctx context.Context, id int, req *models.UpdateUserRequest) (*models.User, error) {
	if req.Role != "" && !validRoles[req.Role] {
		return nil, apperrors.Validationf("unknown role %q", req.Role)
	}

	user, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundf("user %d", id)
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Email != "" {
		user.Email = req.Email
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if req.Role != "" {
		user.Role = req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.Password != "" {
		hashedPassword, err := auth.HashPassword(req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hashedPassword
	}

	if err := s.Repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetActive suspends or reactivates a user
func (s *UserService) SetActive(ctx context.Context, id int, active bool) error {
	return s.Repo.ToggleActiveStatus(ctx, id, active)
}

// Login authenticates a user. When 2FA is enabled the caller gets a
// temporary token and must finish with the TOTP step.
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, *models.LoginStep1Response, error) {
	if req.Email == "" || req.Password == "" {
		return nil, nil, apperrors.Validationf("email and password are required")
	}

	user, err := s.Repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, nil, apperrors.Validationf("invalid email or password")
	}
	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		return nil, nil, apperrors.Validationf("invalid email or password")
	}
	if !user.IsActive {
		return nil, nil, apperrors.Validationf("account is suspended")
	}

	if user.TOTPEnabled {
		tempToken, err := s.JWTManager.GenerateTempToken(user)
		if err != nil {
			return nil, nil, err
		}
		return nil, &models.LoginStep1Response{
			Requires2FA: true,
			TempToken:   tempToken,
			Message:     "enter your authenticator code",
		}, nil
	}

	token, err := s.JWTManager.GenerateToken(user)
	if err != nil {
		return nil, nil, err
	}
	return &models.AuthResponse{Token: token, User: user}, nil, nil
}

// CompleteLogin issues the full token after a successful 2FA step.
func (s *UserService) CompleteLogin(ctx context.Context, userID int) (*models.AuthResponse, error) {
	user, err := s.Repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	token, err := s.JWTManager.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, User: user}, nil
}
