package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"rifas-admin/internal/auth"
	"rifas-admin/internal/listing"
	"rifas-admin/internal/models"
	"rifas-admin/internal/repositories"
)

const MinPasswordLength = 8

var userSortKeys = listing.Keys[models.AdminUser]{
	"nombre": {Text: func(u models.AdminUser) string { return strings.ToLower(u.Name) }},
	"email":  {Text: func(u models.AdminUser) string { return u.Email }},
	"rol":    {Text: func(u models.AdminUser) string { return u.Role }},
	"fecha":  {Number: func(u models.AdminUser) float64 { return float64(u.CreatedAt.Unix()) }},
}

func userFields(u models.AdminUser) []string {
	return []string{u.Name, u.Email, u.Role}
}

type UserInput struct {
	Email    string
	Name     string
	Role     string
	Password string
}

type UserService struct {
	users  repositories.UserRepository
	tokens *auth.TokenIssuer
	log    *zap.SugaredLogger
}

func NewUserService(users repositories.UserRepository, tokens *auth.TokenIssuer, log *zap.SugaredLogger) *UserService {
	return &UserService{users: users, tokens: tokens, log: log}
}

func (s *UserService) ListUsers(ctx context.Context, q listing.Query) (listing.Page[models.AdminUser], error) {
	all, err := s.users.FindAll(ctx)
	if err != nil {
		return listing.Page[models.AdminUser]{}, err
	}
	return listing.Apply(all, q, userFields, userSortKeys, listing.UsersPageSize), nil
}

func (s *UserService) CreateUser(ctx context.Context, in UserInput) (*models.AdminUser, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if in.Role == "" {
		in.Role = models.RoleOperator
	}
	switch {
	case in.Email == "" || !strings.Contains(in.Email, "@"):
		return nil, invalid("email inválido")
	case in.Name == "":
		return nil, invalid("el nombre es obligatorio")
	case in.Role != models.RoleAdmin && in.Role != models.RoleOperator:
		return nil, invalid("rol desconocido %q", in.Role)
	case len(in.Password) < MinPasswordLength:
		return nil, invalid("la contraseña debe tener al menos %d caracteres", MinPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &models.AdminUser{Email: in.Email, Name: in.Name, Role: in.Role, PasswordHash: string(hash)}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, conflict("ya existe un usuario con el email %s", in.Email)
		}
		return nil, err
	}
	s.log.Infow("user created", "user_id", u.ID, "rol", u.Role)
	return u, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Infow("user deleted", "user_id", id)
	return nil
}

// Login checks the credentials and returns a signed session token.
func (s *UserService) Login(ctx context.Context, email, password string) (string, *models.AdminUser, error) {
	u, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", nil, ErrUnauthorized
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.log.Warnw("failed login", "email", u.Email)
		return "", nil, ErrUnauthorized
	}
	token, err := s.tokens.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// SessionTTL is how long an issued token stays valid.
func (s *UserService) SessionTTL() time.Duration { return s.tokens.TTL() }
