package members

import (
	"context"
	"errors"
	"github.com/ariefcatur/go-shop.git/internal/validation"
	"regexp"
	"strings"
)

const (
	MinPasswordLen = 8
	MaxPasswordLen = 16
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

type Store interface {
	Create(ctx context.Context, m *Member) (int64, error)
	GetByEmail(ctx context.Context, email string) (*Member, error)
	GetByID(ctx context.Context, id int64) (*Member, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

type Service struct {
	Store  Store
	Hasher PasswordHasher
}

func NewService(store Store, hasher PasswordHasher) *Service {
	return &Service{Store: store, Hasher: hasher}
}

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func validateForm(f RegisterForm) error {
	var errs validation.Errors
	errs.Required("name", f.Name, "name is required")
	if errs.Required("email", f.Email, "email is required") && !emailRegex.MatchString(strings.TrimSpace(f.Email)) {
		errs.Add("email", "invalid email format")
	}
	if errs.Required("password", f.Password, "password is required") {
		errs.Length("password", f.Password, MinPasswordLen, MaxPasswordLen, "password must be 8 to 16 characters")
	}
	errs.Required("address", f.Address, "address is required")
	return errs.Err()
}

// Register validates the form, hashes the password and stores a USER member.
func (s *Service) Register(ctx context.Context, f RegisterForm) (*Member, error) {
	return s.register(ctx, f, RoleUser)
}

func (s *Service) register(ctx context.Context, f RegisterForm, role Role) (*Member, error) {
	if err := validateForm(f); err != nil {
		return nil, err
	}
	email := normalizeEmail(f.Email)
	exists, err := s.Store.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateEmail
	}
	hash, err := s.Hasher.Hash(f.Password)
	if err != nil {
		return nil, err
	}
	m := &Member{
		Name:         strings.TrimSpace(f.Name),
		Email:        email,
		PasswordHash: hash,
		Address:      strings.TrimSpace(f.Address),
		Role:         role,
	}
	if _, err := s.Store.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// EnsureAdmin creates the bootstrap admin account unless the email is taken.
func (s *Service) EnsureAdmin(ctx context.Context, f RegisterForm) (*Member, bool, error) {
	m, err := s.Store.GetByEmail(ctx, normalizeEmail(f.Email))
	if err == nil {
		return m, false, nil
	}
	if !errors.Is(err, ErrMemberNotFound) {
		return nil, false, err
	}
	m, err = s.register(ctx, f, RoleAdmin)
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

// Authenticate checks email + password; it never tells which one was wrong.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Member, error) {
	m, err := s.Store.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrMemberNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := s.Hasher.Compare(m.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return m, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Member, error) {
	return s.Store.GetByID(ctx, id)
}
