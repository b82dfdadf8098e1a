package domain

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// RoleTier is the capability tier of an account. There are exactly two.
type RoleTier string

const (
	RoleAdministrator RoleTier = "administrator"
	RoleClient        RoleTier = "client"
)

var ErrUnknownRole = errors.New("unknown role")

// ClassifyRole maps a submitted role code to its tier. Codes "1" and "2" are the
// numeric forms used by the admin UI; tier names are accepted as well.
func ClassifyRole(code string) (RoleTier, error) {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "1", "admin", "administrator":
		return RoleAdministrator, nil
	case "2", "client":
		return RoleClient, nil
	default:
		return "", ErrUnknownRole
	}
}

func (t RoleTier) Valid() bool {
	switch t {
	case RoleAdministrator, RoleClient:
		return true
	default:
		return false
	}
}

// Code returns the numeric role code for the tier.
func (t RoleTier) Code() string {
	switch t {
	case RoleAdministrator:
		return "1"
	case RoleClient:
		return "2"
	default:
		return ""
	}
}

// RoleCode is a role as it arrives in a request body: a JSON string or number.
type RoleCode string

func (c *RoleCode) UnmarshalJSON(b []byte) error {
	trimmed := strings.TrimSpace(string(b))
	if trimmed == "null" {
		*c = ""
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = RoleCode(s)
		return nil
	}
	n, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return errors.New("role must be a string or integer")
	}
	*c = RoleCode(strconv.FormatInt(n, 10))
	return nil
}

func (c RoleCode) Tier() (RoleTier, error) {
	return ClassifyRole(string(c))
}
