// Copyright (c) 2026 Libris. All rights reserved.
// Branch: tai.buivan.jp@gmail.com

package branch

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
	router.Get("/", handler.listBranches)
	router.Post("/", handler.createBranch)
	router.Get("/{id}", handler.getBranch)
	router.Put("/{id}", handler.updateBranch)
	router.Delete("/{id}", handler.deleteBranch)
}

func (handler *Handler) listBranches(writer http.ResponseWriter, request *http.Request) {
	page := pagination.FromRequest(request)

	branches, total, err := handler.service.List(request.Context(), page.Limit, page.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, branches, page.Meta(total))
}

func (handler *Handler) getBranch(writer http.ResponseWriter, request *http.Request) {
	branchID, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	branch, err := handler.service.Get(request.Context(), branchID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, branch)
}

func (handler *Handler) createBranch(writer http.ResponseWriter, request *http.Request) {
	var input Branch
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

func (handler *Handler) updateBranch(writer http.ResponseWriter, request *http.Request) {
	branchID, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input Branch
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Update(request.Context(), branchID, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, input)
}

func (handler *Handler) deleteBranch(writer http.ResponseWriter, request *http.Request) {
	branchID, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Delete(request.Context(), branchID); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
