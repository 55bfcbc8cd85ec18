// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package author

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

func (service *Service) List(context context.Context, limit, offset int) ([]*Author, int, error) {
	return service.repo.List(context, limit, offset)
}

func (service *Service) Get(context context.Context, id int) (*Author, error) {
	return guard.Exists(context, entityName, id, service.repo.FindByID)
}

func (service *Service) Create(context context.Context, author *Author) error {
	if err := validateAuthor(author); err != nil {
		return err
	}

	if err := service.repo.Create(context, author); err != nil {
		return err
	}

	service.logger.Info("author_created", slog.Int("author_id", author.ID), slog.String("name", author.Name))
	return nil
}

func (service *Service) Update(context context.Context, id int, author *Author) error {
	if err := validateAuthor(author); err != nil {
		return err
	}

	if _, err := guard.Exists(context, entityName, id, service.repo.FindByID); err != nil {
		return err
	}

	author.ID = id
	if err := service.repo.Update(context, author); err != nil {
		return guard.NotFound(err, entityName)
	}

	service.logger.Info("author_updated", slog.Int("author_id", author.ID))
	return nil
}

func (service *Service) Delete(context context.Context, id int) error {
	if _, err := guard.Exists(context, entityName, id, service.repo.FindByID); err != nil {
		return err
	}

	if err := service.repo.Delete(context, id); err != nil {
		return guard.NotFound(err, entityName)
	}

	service.logger.Warn("author_deleted", slog.Int("author_id", id))
	return nil
}

func validateAuthor(author *Author) error {
	validator := &validate.Validator{}
	validator.Required(FieldName, author.Name).MaxLen(FieldName, author.Name, 255)
	return validator.Err()
}
