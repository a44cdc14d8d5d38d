// Package users handles accounts: sign-up, login, admin management and
// live volunteer locations.
package users

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"disaster-relief-api-server/internal/apperr"
	"disaster-relief-api-server/internal/auth"
	"disaster-relief-api-server/internal/mailer"
	"disaster-relief-api-server/internal/models"
	"disaster-relief-api-server/internal/store"

	"github.com/google/uuid"
)

const minPasswordLength = 6

type Service struct {
	users   store.UserRepository
	tokens  *auth.Tokens
	mail    mailer.Sender
	timeout time.Duration
	now     func() time.Time
	pending sync.WaitGroup
}

func NewService(users store.UserRepository, tokens *auth.Tokens, mail mailer.Sender, timeout time.Duration) *Service {
	if mail == nil {
		mail = mailer.Nop{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{users: users, tokens: tokens, mail: mail, timeout: timeout, now: func() time.Time { return time.Now().UTC() }}
}

// Wait blocks until queued credential emails have been attempted.
func (s *Service) Wait() { s.pending.Wait() }

// Session is what register and login hand back to the client.
type Session struct {
	ID    string      `json:"_id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
	Token string      `json:"token"`
}

func (s *Service) session(u *models.User) (*Session, error) {
	token, err := s.tokens.Generate(u)
	if err != nil {
		return nil, apperr.Internal(err, "Could not issue token")
	}
	return &Session{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, Token: token}, nil
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register is the public sign-up. Only NGOs and volunteers may sign
// themselves up.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	missing := map[string]string{}
	if strings.TrimSpace(in.Name) == "" {
		missing["name"] = "Name is required"
	}
	if normalizeEmail(in.Email) == "" {
		missing["email"] = "Email is required"
	}
	if in.Password == "" {
		missing["password"] = "Password is required"
	}
	if in.Role == "" {
		missing["role"] = "Role is required"
	}
	if len(missing) > 0 {
		return nil, apperr.ValidationFields(missing)
	}
	role, err := models.ParseRole(in.Role)
	if err != nil {
		return nil, apperr.InvalidRole("Invalid role: %s", in.Role)
	}
	if role != models.RoleNGO && role != models.RoleVolunteer {
		return nil, apperr.InvalidRole("Only NGO and Volunteer accounts can be registered")
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperr.Validation("Password must be at least %d characters", minPasswordLength)
	}

	u, err := s.insert(ctx, strings.TrimSpace(in.Name), normalizeEmail(in.Email), in.Password, "", role)
	if err != nil {
		return nil, err
	}
	return s.session(u)
}

func (s *Service) insert(ctx context.Context, name, email, password, personalEmail string, role models.Role) (*models.User, error) {
	if !strings.Contains(email, "@") {
		return nil, apperr.Validation("Invalid email address")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, apperr.Internal(err, "Could not secure password")
	}
	now := s.now()
	u := &models.User{
		Name:          name,
		Email:         email,
		Password:      hash,
		PersonalEmail: strings.TrimSpace(personalEmail),
		Role:          role,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.users.Insert(ctx, u); err != nil {
		return nil, store.AppError(err, "User already exists")
	}
	log.Printf("[users] %s account created for %s", role, email)
	return u, nil
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(in.Email))
	if err != nil || !auth.CheckPasswordHash(in.Password, u.Password) {
		return nil, apperr.Unauthorized("Invalid email or password")
	}
	if !u.IsActive {
		return nil, apperr.Forbidden("Your account has been disabled. Please contact an administrator.")
	}
	return s.session(u)
}

type CreateInput struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	Role          string `json:"role"`
	PersonalEmail string `json:"personalEmail"`
	SendEmail     bool   `json:"sendEmail"`
}

// Create is the admin path; any role may be created. A password is
// generated when none is given and can be mailed to the personal address.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.User, error) {
	if strings.TrimSpace(in.Name) == "" || normalizeEmail(in.Email) == "" || in.Role == "" {
		return nil, apperr.Validation("Please provide name, email, and role.")
	}
	role, err := models.ParseRole(in.Role)
	if err != nil {
		return nil, apperr.InvalidRole("Invalid role: %s", in.Role)
	}
	password := in.Password
	if password == "" {
		password = "password_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	} else if len(password) < minPasswordLength {
		return nil, apperr.Validation("Password must be at least %d characters", minPasswordLength)
	}

	u, err := s.insert(ctx, strings.TrimSpace(in.Name), normalizeEmail(in.Email), password, in.PersonalEmail, role)
	if err != nil {
		return nil, err
	}
	if in.SendEmail && u.PersonalEmail != "" {
		s.sendCredentials(*u, password)
	}
	return u, nil
}

func (s *Service) sendCredentials(u models.User, password string) {
	msg, err := mailer.Credentials(u.PersonalEmail, mailer.CredentialsData{Name: u.Name, Email: u.Email, Password: password})
	if err != nil {
		log.Printf("[users] %v", err)
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.mail.Send(ctx, msg); err != nil {
			log.Printf("[users] credentials email to %s failed: %v", u.PersonalEmail, err)
		}
	}()
}

func (s *Service) Get(ctx context.Context, id string) (*models.User, error) {
	u, err := s.users.Get(ctx, id)
	return u, store.AppError(err, "User not found")
}

func (s *Service) List(ctx context.Context) ([]models.User, error) {
	us, err := s.users.List(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "Could not load users")
	}
	return us, nil
}

// SetBlocked toggles an account's access. Admin accounts cannot be blocked.
func (s *Service) SetBlocked(ctx context.Context, id string, blocked bool) (*models.User, error) {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, store.AppError(err, "User not found")
	}
	if u.Role == models.RoleAdmin {
		return nil, apperr.Validation("Cannot block an admin account.")
	}
	updated, err := s.users.SetActive(ctx, id, !blocked)
	if err != nil {
		return nil, store.AppError(err, "User not found")
	}
	log.Printf("[users] %s active=%t", id, updated.IsActive)
	return updated, nil
}

// UpdateLocation records a user's live position; callers may only move
// themselves unless they are an admin.
func (s *Service) UpdateLocation(ctx context.Context, id string, caller *models.User, lat, lng float64) (*models.User, error) {
	if caller.ID != id && caller.Role != models.RoleAdmin {
		return nil, apperr.Forbidden("You can only update your own location")
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, apperr.Validation("Coordinates out of range")
	}
	u, err := s.users.SetLocation(ctx, id, models.GeoPoint{Lat: lat, Lng: lng, LastUpdated: s.now()})
	return u, store.AppError(err, "User not found")
}
