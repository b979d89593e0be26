// services/user_service.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wfunc/guesswho/auth"
	"github.com/wfunc/guesswho/models"
	"github.com/wfunc/guesswho/persistence"
)

var (
	ErrMissingFields = errors.New("all fields are required")
	ErrEmailTaken    = errors.New("email address already in use")
	ErrUsernameTaken = errors.New("username already in use")
	ErrUnknownEmail  = errors.New("no account for this email address")
	ErrNotVerified   = errors.New("account is not verified")
	ErrBadPassword   = errors.New("incorrect password")
)

type UserService struct {
	db   persistence.Database
	auth *auth.Service
}

func NewUserService(db persistence.Database, auth *auth.Service) *UserService {
	return &UserService{db: db, auth: auth}
}

type RegisterRequest struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// Register creates a new account with a generated short id derived
// from the user's name, enforcing email and username uniqueness.
func (s *UserService) Register(req RegisterRequest) (*models.User, error) {
	if req.Firstname == "" || req.Lastname == "" || req.Username == "" || req.Email == "" || req.Password == "" {
		return nil, ErrMissingFields
	}

	emailCount, err := s.db.CountUsersByEmail(req.Email)
	if err != nil {
		return nil, fmt.Errorf("checking email: %w", err)
	}
	if emailCount > 0 {
		return nil, ErrEmailTaken
	}

	usernameCount, err := s.db.CountUsersByUsername(req.Username)
	if err != nil {
		return nil, fmt.Errorf("checking username: %w", err)
	}
	if usernameCount > 0 {
		return nil, ErrUsernameTaken
	}

	id, err := s.generateID(req.Lastname, req.Firstname)
	if err != nil {
		return nil, err
	}

	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &models.User{
		ID:        id,
		Firstname: req.Firstname,
		Lastname:  req.Lastname,
		Username:  req.Username,
		Email:     req.Email,
		Verified:  true,
	}
	if err := s.db.CreateUser(user, hash); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return user, nil
}

// Login checks the credentials and returns a signed token.
func (s *UserService) Login(email, password string) (string, error) {
	if email == "" || password == "" {
		return "", ErrMissingFields
	}

	user, hash, err := s.db.GetUserCredentials(email)
	if errors.Is(err, persistence.ErrRecordNotFound) {
		return "", ErrUnknownEmail
	}
	if err != nil {
		return "", fmt.Errorf("looking up user: %w", err)
	}
	if !user.Verified {
		return "", ErrNotVerified
	}
	if !s.auth.CheckPassword(hash, password) {
		return "", ErrBadPassword
	}

	return s.auth.IssueToken(user.ID, user.Username)
}

func (s *UserService) GetUser(id string) (*models.User, error) {
	return s.db.GetUserByID(id)
}

// generateID builds a short human-readable id from the first three
// letters of each name part, suffixed with a counter on collision.
func (s *UserService) generateID(lastname, firstname string) (string, error) {
	prefix := strings.ToUpper(take(lastname, 3) + take(firstname, 3))

	count, err := s.db.CountUsersByIDPrefix(prefix)
	if err != nil {
		return "", fmt.Errorf("generating id: %w", err)
	}
	if count == 0 {
		return prefix, nil
	}
	return fmt.Sprintf("%s%d", take(prefix, 5), count+1), nil
}

func take(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
