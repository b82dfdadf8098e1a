package handler

import (
	"testing"

	"github.com/sandeepkv93/storefront-admin-api/internal/domain"
)

func TestNewValidatorRegistersRoleCode(t *testing.T) {
	v := newValidator()
	type payload struct {
		Role domain.RoleCode `json:"role" validate:"rolecode"`
	}
	if err := v.Struct(payload{Role: "2"}); err != nil {
		t.Fatalf("expected client role code to pass, got %v", err)
	}
	if err := v.Struct(payload{Role: "9"}); err == nil {
		t.Fatal("expected unknown role code to fail")
	}
	fields := validateStruct(createUserRequest{Name: "A", Email: "a@b.co", Role: "owner", Password: "secret1", PasswordConfirmation: "secret1"})
	if got := fields["role"]; len(got) != 1 || got[0] != "The selected role is invalid." {
		t.Fatalf("unexpected role messages %v", fields)
	}
}
