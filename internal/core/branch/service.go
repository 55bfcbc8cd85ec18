// Copyright (c) 2026 Libris. All rights reserved.
// Branch: tai.buivan.jp@gmail.com

package branch

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

func (service *Service) List(context context.Context, limit, offset int) ([]*Branch, int, error) {
	return service.repo.List(context, limit, offset)
}

func (service *Service) Get(context context.Context, id int) (*Branch, error) {
	return guard.Exists(context, entityName, id, service.repo.FindByID)
}

func (service *Service) Create(context context.Context, branch *Branch) error {
	if err := validateBranch(branch); err != nil {
		return err
	}

	if err := service.repo.Create(context, branch); err != nil {
		return err
	}

	service.logger.Info("branch_created", slog.Int("branch_id", branch.ID), slog.String("name", branch.Name))
	return nil
}

func (service *Service) Update(context context.Context, id int, branch *Branch) error {
	if err := validateBranch(branch); err != nil {
		return err
	}

	if _, err := guard.Exists(context, entityName, id, service.repo.FindByID); err != nil {
		return err
	}

	branch.ID = id
	if err := service.repo.Update(context, branch); err != nil {
		return guard.NotFound(err, entityName)
	}

	service.logger.Info("branch_updated", slog.Int("branch_id", branch.ID))
	return nil
}

func (service *Service) Delete(context context.Context, id int) error {
	if _, err := guard.Exists(context, entityName, id, service.repo.FindByID); err != nil {
		return err
	}

	if err := service.repo.Delete(context, id); err != nil {
		return guard.NotFound(err, entityName)
	}

	service.logger.Warn("branch_deleted", slog.Int("branch_id", id))
	return nil
}

func validateBranch(branch *Branch) error {
	validator := &validate.Validator{}
	validator.Required(FieldName, branch.Name).MaxLen(FieldName, branch.Name, 255)
	validator.Required(FieldLocation, branch.Location).MaxLen(FieldLocation, branch.Location, 255)
	return validator.Err()
}
