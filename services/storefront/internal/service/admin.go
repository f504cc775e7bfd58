package service

import (
	"context"
	"strings"

	"github.com/you/curtain-store/pkg/apperr"
	"github.com/you/curtain-store/pkg/auth"
	"github.com/you/curtain-store/pkg/mailer"
	"github.com/you/curtain-store/services/storefront/internal/domain"
	"github.com/you/curtain-store/services/storefront/internal/repository"
	"github.com/you/curtain-store/services/storefront/internal/storage"
)

type UserAdminService struct{ users *repository.UserRepo }

func NewUserAdminService(users *repository.UserRepo) *UserAdminService {
	return &UserAdminService{users: users}
}

func (s *UserAdminService) List(ctx context.Context, p repository.Page, q string, role domain.Role) ([]domain.User, int64, error) {
	if role != "" && !role.Valid() {
		return nil, 0, apperr.Validation("unknown role")
	}
	return s.users.List(ctx, p, q, role)
}

func (s *UserAdminService) SetRole(ctx context.Context, actorID, userID uint, role domain.Role) error {
	if !role.Valid() {
		return apperr.Validation("unknown role")
	}
	if actorID == userID && role != domain.RoleAdmin {
		return apperr.Validation("you cannot remove your own admin role")
	}
	return s.users.SetRole(ctx, userID, role)
}

func (s *UserAdminService) Delete(ctx context.Context, actorID, userID uint) error {
	if actorID == userID {
		return apperr.Validation("you cannot delete yourself")
	}
	return s.users.Delete(ctx, userID)
}

// CreateAdmin registers an admin account or promotes an existing one.
func (s *UserAdminService) CreateAdmin(ctx context.Context, in RegisterInput) (*domain.User, bool, error) {
	if u, err := s.users.ByEmail(ctx, in.Email); err == nil {
		if err := s.users.SetRole(ctx, u.ID, domain.RoleAdmin); err != nil {
			return nil, false, err
		}
		u.Role = domain.RoleAdmin
		return u, false, nil
	} else if !apperr.Is(err, apperr.KindNotFound) {
		return nil, false, err
	}
	if err := validEmail(in.Email); err != nil {
		return nil, false, err
	}
	if err := validPassword(in.Password); err != nil {
		return nil, false, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, false, apperr.Wrap(apperr.KindInternal, "hash password", err)
	}
	u := &domain.User{Name: in.Name, Surname: in.Surname, Email: in.Email, PasswordHash: hash, Role: domain.RoleAdmin}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, false, err
	}
	return u, true, nil
}

type MailService struct{ m mailer.Mailer }

func NewMailService(m mailer.Mailer) *MailService {
	return &MailService{m: m}
}

// Send delivers an admin-composed message to every recipient as blind copies.
func (s *MailService) Send(ctx context.Context, recipients []string, subject, message string) error {
	if len(recipients) == 0 {
		return apperr.Validation("at least one recipient is required")
	}
	if err := required(map[string]string{"subject": subject, "message": message}); err != nil {
		return err
	}
	to := make([]string, 0, len(recipients))
	for _, r := range recipients {
		if err := validEmail(r); err != nil {
			return apperr.Validation("invalid recipient: " + r)
		}
		to = append(to, strings.TrimSpace(r))
	}
	html, err := mailer.Render("broadcast.html", map[string]any{"Paragraphs": paragraphs(message)})
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "render mail", err)
	}
	if err := s.m.Send(ctx, mailer.Message{Bcc: to, Subject: subject, Text: message, HTML: html}); err != nil {
		return apperr.Upstream("mail delivery failed", err)
	}
	return nil
}

func paragraphs(s string) []string {
	var out []string
	for _, p := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type UploadService struct{ store storage.Storage }

func NewUploadService(store storage.Storage) *UploadService {
	return &UploadService{store: store}
}

func (s *UploadService) Save(ctx context.Context, u Upload) (string, error) {
	if strings.TrimSpace(u.Name) == "" {
		return "", apperr.Validation("file is required")
	}
	if !storage.IsUploadable(u.Name) {
		return "", apperr.Validation("unsupported file type: " + u.Name)
	}
	url, err := s.store.Save(ctx, u.Name, u.Body)
	if err != nil {
		return "", apperr.Upstream("upload failed", err)
	}
	return url, nil
}
