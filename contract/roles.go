package contract

import (
	"encoding/hex"
	"strings"

	"provenance/model"

	"golang.org/x/crypto/sha3"
)

// role describes one grantable role. The id is the Keccak-256 hex of the
// role name.
type role struct {
	name  string
	short string
	id    string
}

var (
	originatorRole = newRole(model.OriginatorRoleName, "originator")
	custodianRole  = newRole(model.CustodianRoleName, "custodian")

	knownRoles = []role{originatorRole, custodianRole}
)

func newRole(name, short string) role {
	return role{name: name, short: short, id: keccakHex(name)}
}

// keccakHex returns the 0x-prefixed lowercase hex Keccak-256 digest of s.
func keccakHex(s string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(s))
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

// OriginatorRoleID returns the identifier of the Originator role.
func OriginatorRoleID() string { return originatorRole.id }

// CustodianRoleID returns the identifier of the Custodian role.
func CustodianRoleID() string { return custodianRole.id }

// lookupRole resolves a role given by hex id (with or without 0x), by name, or
// by short name. Matching is case-insensitive.
func lookupRole(ref string) (role, bool) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return role{}, false
	}
	if !strings.HasPrefix(ref, "0x") && len(ref) == 64 {
		ref = "0x" + ref
	}
	for _, r := range knownRoles {
		if ref == r.id || ref == strings.ToLower(r.name) || ref == r.short {
			return r, true
		}
	}
	return role{}, false
}

func (r role) held(a *model.RoleAssignment) bool {
	if a == nil {
		return false
	}
	switch r.name {
	case model.OriginatorRoleName:
		return a.IsOriginator
	case model.CustodianRoleName:
		return a.IsCustodian
	}
	return false
}

func (r role) set(a *model.RoleAssignment, value bool) {
	switch r.name {
	case model.OriginatorRoleName:
		a.IsOriginator = value
	case model.CustodianRoleName:
		a.IsCustodian = value
	}
}

// title is the capitalized short name used in rejection reasons.
func (r role) title() string {
	return strings.ToUpper(r.short[:1]) + r.short[1:]
}
