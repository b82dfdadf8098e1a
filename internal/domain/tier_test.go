package domain

import (
	"encoding/json"
	"testing"
)

func TestClassifyRole(t *testing.T) {
	cases := []struct {
		code string
		want RoleTier
		ok   bool
	}{
		{"1", RoleAdministrator, true},
		{"2", RoleClient, true},
		{" Client ", RoleClient, true},
		{"administrator", RoleAdministrator, true},
		{"3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ClassifyRole(tc.code)
		if tc.ok && err != nil {
			t.Fatalf("classify %q: unexpected error %v", tc.code, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("classify %q: expected error", tc.code)
		}
		if got != tc.want {
			t.Fatalf("classify %q: expected %q, got %q", tc.code, tc.want, got)
		}
	}
}

func TestRoleCodeAcceptsStringOrNumber(t *testing.T) {
	var body struct {
		Role RoleCode `json:"role"`
	}
	if err := json.Unmarshal([]byte(`{"role":2}`), &body); err != nil {
		t.Fatalf("unmarshal number: %v", err)
	}
	if tier, err := body.Role.Tier(); err != nil || tier != RoleClient {
		t.Fatalf("expected client tier, got %q err=%v", tier, err)
	}
	if err := json.Unmarshal([]byte(`{"role":"1"}`), &body); err != nil {
		t.Fatalf("unmarshal string: %v", err)
	}
	if tier, err := body.Role.Tier(); err != nil || tier != RoleAdministrator {
		t.Fatalf("expected administrator tier, got %q err=%v", tier, err)
	}
	if err := json.Unmarshal([]byte(`{"role":true}`), &body); err == nil {
		t.Fatal("expected error for boolean role")
	}
}

func TestRoleTierCode(t *testing.T) {
	if RoleAdministrator.Code() != "1" || RoleClient.Code() != "2" {
		t.Fatalf("unexpected codes %q %q", RoleAdministrator.Code(), RoleClient.Code())
	}
	if RoleTier("owner").Valid() {
		t.Fatal("expected unknown tier to be invalid")
	}
}
