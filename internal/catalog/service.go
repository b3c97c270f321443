package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	pkgerrors "github.com/mayakapoor/aurelia-backend/pkg/errors"
)

// Service defines the read surface exposed to the products controller.
type Service interface {
	List(ctx context.Context, filter ListFilter) (*ProductPageDTO, error)
	Get(ctx context.Context, rawRef string) (*ProductDTO, error)
	Categories(ctx context.Context) ([]string, error)
}

type service struct {
	repo *Repository
}

// NewService constructs a catalog service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) (*ProductPageDTO, error) {
	rows, nextCursor, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}

	items := make([]ProductDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, FromModel(row))
	}
	return &ProductPageDTO{Items: items, NextCursor: nextCursor}, nil
}

func (s *service) Get(ctx context.Context, rawRef string) (*ProductDTO, error) {
	product, err := s.repo.FindByRef(ctx, ParseProductRef(rawRef))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	dto := FromModel(*product)
	return &dto, nil
}

func (s *service) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	return categories, nil
}
