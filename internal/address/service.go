package address

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mayakapoor/aurelia-backend/pkg/db/models"
	pkgerrors "github.com/mayakapoor/aurelia-backend/pkg/errors"
)

// Service is the address book behavior consumed by controllers and checkout.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error)
	Create(ctx context.Context, userID uuid.UUID, req UpsertRequest) (*AddressDTO, error)
	Update(ctx context.Context, userID, addressID uuid.UUID, req UpsertRequest) (*AddressDTO, error)
	Delete(ctx context.Context, userID, addressID uuid.UUID) error
	SetDefaultShipping(ctx context.Context, userID, addressID uuid.UUID) error
}

type addressRepository interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	Find(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error)
	Insert(ctx context.Context, row *models.Address) error
	Update(ctx context.Context, row *models.Address) error
	Delete(ctx context.Context, userID, addressID uuid.UUID) error
	SetDefaultShipping(ctx context.Context, userID, addressID uuid.UUID) error
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type service struct {
	repo addressRepository
}

// NewService constructs an address service.
func NewService(repo addressRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error) {
	rows, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list addresses")
	}
	dtos := make([]AddressDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, fromModel(row))
	}
	return dtos, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, req UpsertRequest) (*AddressDTO, error) {
	count, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count addresses")
	}

	row := rowFromRequest(userID, req)
	if err := s.repo.Insert(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert address")
	}

	// The first saved address always becomes the shipping default.
	if req.IsDefaultShipping || count == 0 {
		if err := s.repo.SetDefaultShipping(ctx, userID, row.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "set default shipping")
		}
		row.IsDefaultShipping = true
	}

	dto := fromModel(*row)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, userID, addressID uuid.UUID, req UpsertRequest) (*AddressDTO, error) {
	row, err := s.repo.Find(ctx, userID, addressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load address")
	}

	applyRequest(row, req)
	if err := s.repo.Update(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update address")
	}

	if req.IsDefaultShipping && !row.IsDefaultShipping {
		if err := s.repo.SetDefaultShipping(ctx, userID, row.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "set default shipping")
		}
		row.IsDefaultShipping = true
	}

	dto := fromModel(*row)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	if _, err := s.repo.Find(ctx, userID, addressID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load address")
	}
	if err := s.repo.Delete(ctx, userID, addressID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete address")
	}
	return nil
}

func (s *service) SetDefaultShipping(ctx context.Context, userID, addressID uuid.UUID) error {
	if err := s.repo.SetDefaultShipping(ctx, userID, addressID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "set default shipping")
	}
	return nil
}

func rowFromRequest(userID uuid.UUID, req UpsertRequest) *models.Address {
	row := &models.Address{UserID: userID}
	applyRequest(row, req)
	return row
}

func applyRequest(row *models.Address, req UpsertRequest) {
	label := strings.TrimSpace(req.Label)
	if label == "" {
		label = "home"
	}
	country := strings.ToUpper(strings.TrimSpace(req.Country))
	if country == "" {
		country = "IN"
	}
	row.Label = label
	row.FullName = strings.TrimSpace(req.FullName)
	row.Phone = strings.TrimSpace(req.Phone)
	row.Line1 = strings.TrimSpace(req.Line1)
	row.Line2 = req.Line2
	row.City = strings.TrimSpace(req.City)
	row.State = strings.TrimSpace(req.State)
	row.PostalCode = strings.TrimSpace(req.PostalCode)
	row.Country = country
}
