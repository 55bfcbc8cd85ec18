// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package stock

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/libris/internal/platform/request"
	"github.com/taibuivan/libris/internal/platform/respond"
	"github.com/taibuivan/libris/pkg/pagination"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/", handler.listCopies)
	router.Post("/", handler.createCopy)
	router.Get("/{id}", handler.getCopy)
	router.Put("/{id}", handler.updateCopy)
	router.Delete("/{id}", handler.deleteCopy)

	// Guarded status transition
	router.Post("/{id}/relocate", handler.relocateCopy)
}

// relocateRequest is the body of POST /stock/{id}/relocate.
type relocateRequest struct {
	Status Status `json:"status"`
}

func (handler *Handler) listCopies(writer http.ResponseWriter, request *http.Request) {
	page := pagination.FromRequest(request)

	copies, total, err := handler.service.List(request.Context(), page.Limit, page.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, copies, page.Meta(total))
}

func (handler *Handler) getCopy(writer http.ResponseWriter, request *http.Request) {
	copyID, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	found, err := handler.service.Get(request.Context(), copyID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, found)
}

func (handler *Handler) createCopy(writer http.ResponseWriter, request *http.Request) {
	var input Copy
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Create(request.Context(), &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, input)
}

func (handler *Handler) updateCopy(writer http.ResponseWriter, request *http.Request) {
	copyID, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input Copy
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Update(request.Context(), copyID, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, input)
}

func (handler *Handler) deleteCopy(writer http.ResponseWriter, request *http.Request) {
	copyID, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Delete(request.Context(), copyID); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

func (handler *Handler) relocateCopy(writer http.ResponseWriter, request *http.Request) {
	copyID, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input relocateRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	moved, err := handler.service.Relocate(request.Context(), copyID, input.Status)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, moved)
}
