package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/you/curtain-store/pkg/apperr"
	"github.com/you/curtain-store/pkg/auth"
	"github.com/you/curtain-store/pkg/mailer"
	"github.com/you/curtain-store/services/storefront/internal/domain"
	"github.com/you/curtain-store/services/storefront/internal/repository"
)

const ResetTokenTTL = 30 * time.Minute

// ResetRequestedMessage is returned for every reset request, known email or not.
const ResetRequestedMessage = "If an account exists for that email, a reset link has been sent."

type AuthService struct {
	users   *repository.UserRepo
	signer  *auth.Signer
	mail    mailer.Mailer
	baseURL string
	log     zerolog.Logger
	now     func() time.Time
}

func NewAuthService(users *repository.UserRepo, signer *auth.Signer, m mailer.Mailer, baseURL string, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:   users,
		signer:  signer,
		mail:    m,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

type RegisterInput struct {
	Name     string
	Surname  string
	Email    string
	Password string
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if err := required(map[string]string{"name": in.Name, "surname": in.Surname, "email": in.Email, "password": in.Password}); err != nil {
		return nil, err
	}
	if err := validEmail(in.Email); err != nil {
		return nil, err
	}
	if err := validPassword(in.Password); err != nil {
		return nil, err
	}
	if _, err := s.users.ByEmail(ctx, in.Email); err == nil {
		return nil, apperr.Conflict("email already registered")
	} else if !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "hash password", err)
	}
	u := &domain.User{
		Name:         strings.TrimSpace(in.Name),
		Surname:      strings.TrimSpace(in.Surname),
		Email:        in.Email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			return nil, apperr.Conflict("email already registered")
		}
		return nil, err
	}
	return u, nil
}

// Login returns the user and a signed session token. Unknown emails and
// wrong passwords fail the same way.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	invalid := apperr.Unauthorized("invalid credentials")
	u, err := s.users.ByEmail(ctx, email)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, "", invalid
	}
	if err != nil {
		return nil, "", err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, "", invalid
	}
	tok, err := s.IssueToken(u)
	if err != nil {
		return nil, "", err
	}
	return u, tok, nil
}

func (s *AuthService) IssueToken(u *domain.User) (string, error) {
	tok, err := s.signer.CreateAccessToken(auth.Identity{
		ID:      u.ID,
		Name:    u.Name,
		Surname: u.Surname,
		Email:   u.Email,
		Role:    string(u.Role),
	})
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "sign session", err)
	}
	return tok, nil
}

func (s *AuthService) SessionTTL() time.Duration { return s.signer.TTL() }

// RequestPasswordReset mails a reset link when the email is known. Callers
// always answer with ResetRequestedMessage.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.users.ByEmail(ctx, email)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	token := uuid.NewString()
	if err := s.users.SetResetToken(ctx, u.ID, token, s.now().Add(ResetTokenTTL)); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/account/reset_password?token=%s", s.baseURL, url.QueryEscape(token))
	html, err := mailer.Render("password_reset.html", map[string]any{
		"Name":     u.Name,
		"Link":     link,
		"ValidFor": "30 minutes",
	})
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "render reset mail", err)
	}
	err = s.mail.Send(ctx, mailer.Message{
		To:      []string{u.Email},
		Subject: "Reset your password",
		Text:    "Reset your password: " + link,
		HTML:    html,
	})
	if err != nil {
		s.log.Error().Err(err).Uint("user_id", u.ID).Msg("send password reset mail")
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	if strings.TrimSpace(token) == "" {
		return apperr.Validation("invalid or expired token")
	}
	if err := validPassword(password); err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "hash password", err)
	}
	ok, err := s.users.ConsumeResetToken(ctx, token, hash, s.now())
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Validation("invalid or expired token")
	}
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID uint) (*domain.User, error) {
	return s.users.ByID(ctx, userID)
}

type ProfileInput struct {
	Name    string
	Surname string
	Email   string
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, in ProfileInput) (*domain.User, error) {
	if err := required(map[string]string{"name": in.Name, "surname": in.Surname, "email": in.Email}); err != nil {
		return nil, err
	}
	if err := validEmail(in.Email); err != nil {
		return nil, err
	}
	err := s.users.UpdateProfile(ctx, userID, strings.TrimSpace(in.Name), strings.TrimSpace(in.Surname), in.Email)
	if apperr.Is(err, apperr.KindConflict) {
		return nil, apperr.Conflict("email already registered")
	}
	if err != nil {
		return nil, err
	}
	return s.users.ByID(ctx, userID)
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	u, err := s.users.ByID(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(u.PasswordHash, current) {
		return apperr.Validation("current password is incorrect")
	}
	if err := validPassword(next); err != nil {
		return err
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "hash password", err)
	}
	return s.users.SetPassword(ctx, userID, hash)
}
