// Copyright (c) 2026 Libris. All rights reserved.
// Branch: tai.buivan.jp@gmail.com

package branch_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/libris/internal/core/branch"
	"github.com/taibuivan/libris/internal/platform/apperr"
	"github.com/taibuivan/libris/internal/platform/dberr"
)

// memoryRepository is an in-memory branch.Repository that counts mutations.
type memoryRepository struct {
	mu      sync.Mutex
	nextID  int
	rows    map[int]branch.Branch
	updates int
	deletes int
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{nextID: 1, rows: make(map[int]branch.Branch)}
}

func (r *memoryRepository) List(_ context.Context, limit, offset int) ([]*branch.Branch, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []*branch.Branch{}
	for id := 1; id < r.nextID; id++ {
		if row, ok := r.rows[id]; ok {
			out = append(out, &row)
		}
	}
	total := len(out)
	if offset >= total {
		return []*branch.Branch{}, total, nil
	}
	return out[offset:min(offset+limit, total)], total, nil
}

func (r *memoryRepository) FindByID(_ context.Context, id int) (*branch.Branch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[id]
	if !ok {
		return nil, dberr.ErrNotFound
	}
	return &row, nil
}

func (r *memoryRepository) Create(_ context.Context, a *branch.Branch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a.ID = r.nextID
	r.nextID++
	r.rows[a.ID] = *a
	return nil
}

func (r *memoryRepository) Update(_ context.Context, a *branch.Branch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.updates++
	if _, ok := r.rows[a.ID]; !ok {
		return dberr.ErrNotFound
	}
	r.rows[a.ID] = *a
	return nil
}

func (r *memoryRepository) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.deletes++
	if _, ok := r.rows[id]; !ok {
		return dberr.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func newService(repo branch.Repository) *branch.Service {
	return branch.NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

/*
TestService_CreateAndGet round-trips an branch through the service.
*/
func TestService_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	service := newService(newMemoryRepository())

	created := &branch.Branch{Name: "Central", Location: "Rua da Consolação, 94"}
	require.NoError(t, service.Create(ctx, created))
	assert.Equal(t, 1, created.ID)

	found, err := service.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Central", found.Name)
}

/*
TestService_CreateValidation requires both name and location.
*/
func TestService_CreateValidation(t *testing.T) {
	repo := newMemoryRepository()
	service := newService(repo)

	err := service.Create(context.Background(), &branch.Branch{Name: "  "})
	require.Error(t, err)

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, apperr.CodeValidation, ae.Code)
	assert.Len(t, ae.Details, 2)
	assert.Empty(t, repo.rows)
}

/*
TestService_UpdateSetsID copies the path identifier onto the new value.
*/
func TestService_UpdateSetsID(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository()
	service := newService(repo)

	require.NoError(t, service.Create(ctx, &branch.Branch{Name: "Norte", Location: "Av. Santana, 10"}))

	input := &branch.Branch{ID: 99, Name: "Norte II", Location: "Av. Santana, 12"}
	require.NoError(t, service.Update(ctx, 1, input))

	assert.Equal(t, 1, input.ID)
	assert.Equal(t, "Norte II", repo.rows[1].Name)
}

/*
TestService_MissingBranch checks that update and delete of an unknown id
fail with NotFound and never reach the store mutation.
*/
func TestService_MissingBranch(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository()
	service := newService(repo)

	err := service.Update(ctx, 42, &branch.Branch{Name: "Sul", Location: "Praça da Sé"})
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
	assert.Equal(t, "Branch not found", err.Error())

	err = service.Delete(ctx, 42)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	_, err = service.Get(ctx, 42)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	assert.Zero(t, repo.updates)
	assert.Zero(t, repo.deletes)
}

/*
TestService_Delete removes an existing branch.
*/
func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository()
	service := newService(repo)

	require.NoError(t, service.Create(ctx, &branch.Branch{Name: "Leste", Location: "Rua Tuiuti, 515"}))
	require.NoError(t, service.Delete(ctx, 1))

	assert.Equal(t, 1, repo.deletes)
	assert.Empty(t, repo.rows)
}
