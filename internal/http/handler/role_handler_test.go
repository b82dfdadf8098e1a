package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sandeepkv93/storefront-admin-api/internal/domain"
	"github.com/sandeepkv93/storefront-admin-api/internal/service"
)

type stubRoleService struct {
	roles map[uint]*domain.Role
	next  uint
}

func newStubRoleService() *stubRoleService {
	return &stubRoleService{roles: map[uint]*domain.Role{}, next: 1}
}

func (s *stubRoleService) List(context.Context) ([]domain.Role, error) {
	out := make([]domain.Role, 0, len(s.roles))
	for _, r := range s.roles {
		out = append(out, *r)
	}
	return out, nil
}

func (s *stubRoleService) Create(_ context.Context, name string) (*domain.Role, error) {
	for _, r := range s.roles {
		if r.Name == name {
			return nil, service.NewValidationError("name", "The name has already been taken.")
		}
	}
	r := &domain.Role{ID: s.next, Name: name}
	s.roles[r.ID] = r
	s.next++
	return r, nil
}

func (s *stubRoleService) Update(_ context.Context, id uint, name string) (*domain.Role, error) {
	r, ok := s.roles[id]
	if !ok {
		return nil, service.ErrRoleNotFound
	}
	r.Name = name
	return r, nil
}

func (s *stubRoleService) Delete(_ context.Context, id uint) error {
	if _, ok := s.roles[id]; !ok {
		return service.ErrRoleNotFound
	}
	delete(s.roles, id)
	return nil
}

func TestRoleHandlerLifecycle(t *testing.T) {
	h := NewRoleHandler(newStubRoleService())

	rr := httptest.NewRecorder()
	h.Create(rr, jsonRequest(http.MethodPost, "/roles/create", `{"name":"editor"}`))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.Create(rr, jsonRequest(http.MethodPost, "/roles/create", `{"name":"editor"}`))
	expectError(t, rr, http.StatusUnprocessableEntity, "VALIDATION_FAILED")

	rr = httptest.NewRecorder()
	h.Update(rr, withURLParam(jsonRequest(http.MethodPut, "/roles/update/1", `{"name":"writer"}`), "id", "1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.Update(rr, withURLParam(jsonRequest(http.MethodPut, "/roles/update/99", `{"name":"ghost"}`), "id", "99"))
	expectError(t, rr, http.StatusNotFound, "NOT_FOUND")

	rr = httptest.NewRecorder()
	h.Delete(rr, withURLParam(httptest.NewRequest(http.MethodDelete, "/roles/delete/1", nil), "id", "1"))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.Delete(rr, withURLParam(httptest.NewRequest(http.MethodDelete, "/roles/delete/1", nil), "id", "1"))
	expectError(t, rr, http.StatusNotFound, "NOT_FOUND")
}

func TestRoleHandlerRequiresName(t *testing.T) {
	h := NewRoleHandler(newStubRoleService())
	rr := httptest.NewRecorder()
	h.Create(rr, jsonRequest(http.MethodPost, "/roles/create", `{"name":""}`))
	env := expectError(t, rr, http.StatusUnprocessableEntity, "VALIDATION_FAILED")
	if got := env.Error.Details.Fields["name"]; len(got) != 1 || got[0] != "The name field is required." {
		t.Fatalf("unexpected name messages %v", got)
	}
}
