package contract

import (
	"encoding/json"
	"fmt"
	"sort"

	"provenance/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric/common/flogging"
)

var roleLogger = flogging.MustGetLogger("provenance.roles")

// Object types for composite keys, also usable as 'docType' in CouchDB queries.
const (
	ownerObjectType          = "RegistryOwner"  // Singleton. Value: owner account.
	roleAssignmentObjectType = "RoleAssignment" // Attribute: account. Value: RoleAssignment JSON.
)

// RoleManager handles ownership and the Originator/Custodian role relation.
type RoleManager struct {
	Ctx contractapi.TransactionContextInterface
}

// NewRoleManager creates a new instance of RoleManager.
func NewRoleManager(ctx contractapi.TransactionContextInterface) *RoleManager {
	return &RoleManager{Ctx: ctx}
}

// --- Ownership ---

// GetOwner returns the registry owner and whether one has been installed.
func (rm *RoleManager) GetOwner() (string, bool, error) {
	key, err := createSingletonKey(rm.Ctx, ownerObjectType)
	if err != nil {
		return "", false, fmt.Errorf("failed to create owner key: %w", err)
	}
	owner, err := rm.Ctx.GetStub().GetState(key)
	if err != nil {
		return "", false, fmt.Errorf("failed to read owner from ledger: %w", err)
	}
	if owner == nil {
		return "", false, nil
	}
	return string(owner), true, nil
}

// InstallOwner records the caller as owner. It fails once an owner exists.
func (rm *RoleManager) InstallOwner() (string, error) {
	caller, err := callerAccount(rm.Ctx)
	if err != nil {
		return "", err
	}
	_, exists, err := rm.GetOwner()
	if err != nil {
		return "", err
	}
	if exists {
		return "", rejectf(ErrUnauthorized, "registry already initialized")
	}
	key, err := createSingletonKey(rm.Ctx, ownerObjectType)
	if err != nil {
		return "", fmt.Errorf("failed to create owner key: %w", err)
	}
	if err := rm.Ctx.GetStub().PutState(key, []byte(caller)); err != nil {
		return "", fmt.Errorf("failed to save owner: %w", err)
	}
	roleLogger.Infof("Registry owner installed: '%s'", describeAccount(caller))
	return caller, nil
}

// requireOwner returns the caller if it is the owner.
func (rm *RoleManager) requireOwner() (string, error) {
	caller, err := callerAccount(rm.Ctx)
	if err != nil {
		return "", err
	}
	owner, exists, err := rm.GetOwner()
	if err != nil {
		return "", err
	}
	if !exists {
		return "", rejectf(ErrUnauthorized, "registry has no owner")
	}
	if caller != owner {
		return "", rejectf(ErrUnauthorized, "caller is not the owner")
	}
	return caller, nil
}

// --- Role relation ---

func (rm *RoleManager) createRoleAssignmentKey(account string) (string, error) {
	return rm.Ctx.GetStub().CreateCompositeKey(roleAssignmentObjectType, []string{account})
}

// getAssignment returns the stored flags of a normalized account, or an empty
// assignment when none were ever granted.
func (rm *RoleManager) getAssignment(account string) (*model.RoleAssignment, error) {
	key, err := rm.createRoleAssignmentKey(account)
	if err != nil {
		return nil, fmt.Errorf("failed to create role key for '%s': %w", account, err)
	}
	var assignment model.RoleAssignment
	found, err := getJSON(rm.Ctx, key, &assignment)
	if err != nil {
		return nil, err
	}
	if !found {
		return &model.RoleAssignment{ObjectType: roleAssignmentObjectType, Account: account}, nil
	}
	return &assignment, nil
}

// Grant gives target the role. Only the owner may call it.
func (rm *RoleManager) Grant(r role, target string) error {
	return rm.toggle(r, target, true)
}

// Revoke removes the role from target. Only the owner may call it. Batches and
// events the target already recorded are unaffected.
func (rm *RoleManager) Revoke(r role, target string) error {
	return rm.toggle(r, target, false)
}

func (rm *RoleManager) toggle(r role, target string, grant bool) error {
	owner, err := rm.requireOwner()
	if err != nil {
		return err
	}
	account, err := normalizeAccount(target)
	if err != nil {
		return err
	}
	assignment, err := rm.getAssignment(account)
	if err != nil {
		return err
	}

	held := r.held(assignment)
	if grant && held {
		return rejectf(ErrAlreadyGranted, "account already has %s role", r.title())
	}
	if !grant && !held {
		return rejectf(ErrRoleNotHeld, "account does not have %s role", r.title())
	}

	now, err := getCurrentTxTimestamp(rm.Ctx)
	if err != nil {
		return err
	}
	r.set(assignment, grant)
	assignment.GrantedBy = owner
	assignment.UpdatedAt = now

	key, err := rm.createRoleAssignmentKey(account)
	if err != nil {
		return fmt.Errorf("failed to create role key for '%s': %w", account, err)
	}
	if err := putJSON(rm.Ctx, key, assignment); err != nil {
		return err
	}

	kind := model.NotificationRoleGranted
	if !grant {
		kind = model.NotificationRoleRevoked
	}
	if err := emitNotifications(rm.Ctx, []model.Notification{{
		Kind:      kind,
		RoleID:    r.id,
		RoleName:  r.name,
		Account:   account,
		TxID:      rm.Ctx.GetStub().GetTxID(),
		Timestamp: now,
	}}); err != nil {
		return err
	}
	roleLogger.Infof("%s: role '%s' for '%s' by owner", kind, r.name, describeAccount(account))
	return nil
}

// HasRole reports whether account holds the role. Malformed accounts hold nothing.
func (rm *RoleManager) HasRole(r role, account string) (bool, error) {
	normalized, err := normalizeAccount(account)
	if err != nil {
		roleLogger.Debugf("HasRole: treating malformed account '%s' as holding no role: %v", account, err)
		return false, nil
	}
	assignment, err := rm.getAssignment(normalized)
	if err != nil {
		return false, err
	}
	return r.held(assignment), nil
}

// RequireRole returns the caller if it holds the role.
func (rm *RoleManager) RequireRole(r role) (string, error) {
	caller, err := callerAccount(rm.Ctx)
	if err != nil {
		return "", err
	}
	assignment, err := rm.getAssignment(caller)
	if err != nil {
		return "", err
	}
	if !r.held(assignment) {
		return "", rejectf(ErrUnauthorized, "caller is not %s %s", article(r.short), r.title())
	}
	return caller, nil
}

// Members lists accounts currently holding the role, sorted.
func (rm *RoleManager) Members(r role) ([]string, error) {
	iterator, err := rm.Ctx.GetStub().GetStateByPartialCompositeKey(roleAssignmentObjectType, []string{})
	if err != nil {
		return nil, fmt.Errorf("failed to get role assignments iterator: %w", err)
	}
	defer iterator.Close()

	members := []string{}
	for iterator.HasNext() {
		entry, iterErr := iterator.Next()
		if iterErr != nil {
			return nil, fmt.Errorf("failed to iterate role assignments: %w", iterErr)
		}
		var assignment model.RoleAssignment
		if err := json.Unmarshal(entry.Value, &assignment); err != nil {
			roleLogger.Warningf("Members: failed to unmarshal role assignment '%s': %v. Skipping.", entry.Key, err)
			continue
		}
		if r.held(&assignment) {
			members = append(members, assignment.Account)
		}
	}
	sort.Strings(members)
	return members, nil
}

func article(word string) string {
	switch word[0] {
	case 'a', 'e', 'i', 'o', 'u':
		return "an"
	}
	return "a"
}
