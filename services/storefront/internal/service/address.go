package service

import (
	"context"
	"strings"

	"github.com/you/curtain-store/services/storefront/internal/domain"
	"github.com/you/curtain-store/services/storefront/internal/repository"
)

type AddressService struct{ repo *repository.AddressRepo }

func NewAddressService(repo *repository.AddressRepo) *AddressService {
	return &AddressService{repo: repo}
}

type AddressInput struct {
	Title        string `json:"title"`
	FullName     string `json:"full_name"`
	Phone        string `json:"phone"`
	City         string `json:"city"`
	District     string `json:"district"`
	Neighborhood string `json:"neighborhood"`
	Line         string `json:"line"`
	PostalCode   string `json:"postal_code"`
}

func (in AddressInput) validate() error {
	return required(map[string]string{
		"full_name": in.FullName,
		"phone":     in.Phone,
		"city":      in.City,
		"line":      in.Line,
	})
}

func (in AddressInput) apply(a *domain.Address) {
	a.Title = strings.TrimSpace(in.Title)
	a.FullName = strings.TrimSpace(in.FullName)
	a.Phone = strings.TrimSpace(in.Phone)
	a.City = strings.TrimSpace(in.City)
	a.District = strings.TrimSpace(in.District)
	a.Neighborhood = strings.TrimSpace(in.Neighborhood)
	a.Line = strings.TrimSpace(in.Line)
	a.PostalCode = strings.TrimSpace(in.PostalCode)
}

func (s *AddressService) List(ctx context.Context, userID uint) ([]domain.Address, error) {
	return s.repo.List(ctx, userID)
}

func (s *AddressService) Create(ctx context.Context, userID uint, in AddressInput) (*domain.Address, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	a := &domain.Address{UserID: userID}
	in.apply(a)
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AddressService) Update(ctx context.Context, userID, id uint, in AddressInput) (*domain.Address, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	a := &domain.Address{ID: id, UserID: userID}
	in.apply(a)
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return s.repo.Owned(ctx, userID, id)
}

func (s *AddressService) Delete(ctx context.Context, userID, id uint) error {
	return s.repo.Delete(ctx, userID, id)
}
