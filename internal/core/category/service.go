// Copyright (c) 2026 Libris. All rights reserved.
// Category: tai.buivan.jp@gmail.com

package category

import (
	"context"
	"log/slog"

	"github.com/taibuivan/libris/internal/platform/guard"
	"github.com/taibuivan/libris/internal/platform/validate"
)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (service *Service) List(context context.Context, limit, offset int) ([]*Category, int, error) {
	return service.repo.List(context, limit, offset)
}

func (service *Service) Get(context context.Context, id int) (*Category, error) {
	return guard.Exists(context, entityName, id, service.repo.FindByID)
}

func (service *Service) Create(context context.Context, category *Category) error {
	if err := validateCategory(category); err != nil {
		return err
	}

	if err := service.repo.Create(context, category); err != nil {
		return err
	}

	service.logger.Info("category_created", slog.Int("category_id", category.ID), slog.String("name", category.Name))
	return nil
}

func (service *Service) Update(context context.Context, id int, category *Category) error {
	if err := validateCategory(category); err != nil {
		return err
	}

	if _, err := guard.Exists(context, entityName, id, service.repo.FindByID); err != nil {
		return err
	}

	category.ID = id
	if err := service.repo.Update(context, category); err != nil {
		return guard.NotFound(err, entityName)
	}

	service.logger.Info("category_updated", slog.Int("category_id", category.ID))
	return nil
}

func (service *Service) Delete(context context.Context, id int) error {
	if _, err := guard.Exists(context, entityName, id, service.repo.FindByID); err != nil {
		return err
	}

	if err := service.repo.Delete(context, id); err != nil {
		return guard.NotFound(err, entityName)
	}

	service.logger.Warn("category_deleted", slog.Int("category_id", id))
	return nil
}

func validateCategory(category *Category) error {
	validator := &validate.Validator{}
	validator.Required(FieldName, category.Name).MaxLen(FieldName, category.Name, 255)
	return validator.Err()
}
