package serviceImp

import (
	"context"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"watersync/entities"
	"watersync/pkg/apperr"
	repo "watersync/pkg/auth/repository"
	"watersync/pkg/auth/service"
	"watersync/pkg/auth/session"
)

type authSvc struct {
	users  repo.UserRepository
	secret []byte
	ttl    time.Duration
}

func NewAuthService(users repo.UserRepository, secret []byte, ttl time.Duration) service.AuthService {
	return &authSvc{users: users, secret: secret, ttl: ttl}
}

// Signup stores a new account. It cannot be used until staff approve it.
func (s *authSvc) Signup(ctx context.Context, in service.SignupForm) (*entities.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &entities.User{Email: in.Email, Name: in.Name, PasswordHash: string(hash)}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	log.Printf("[auth] signup %s awaiting approval", u.Email)
	return u, nil
}

func (s *authSvc) Login(ctx context.Context, in service.LoginForm) (string, *entities.User, error) {
	bad := apperr.Invalid(map[string]string{apperr.NonField: "Please enter a correct email and password."})
	u, err := s.users.FindByEmail(ctx, in.Email)
	if apperr.Is(err, apperr.KindNotFound) {
		return "", nil, bad
	}
	if err != nil {
		return "", nil, err
	}
	if u.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		return "", nil, bad
	}
	tok, err := s.Token(u)
	if err != nil {
		return "", nil, err
	}
	return tok, u, nil
}

func (s *authSvc) Token(u *entities.User) (string, error) {
	return session.Issue(s.secret, u.ID, u.Email, s.ttl)
}

func (s *authSvc) Pending(ctx context.Context) ([]entities.User, error) {
	return s.users.ListPending(ctx)
}

func (s *authSvc) Approve(ctx context.Context, id uint) error {
	if err := s.users.Approve(ctx, id); err != nil {
		return err
	}
	log.Printf("[auth] user %d approved", id)
	return nil
}
