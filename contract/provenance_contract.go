package contract

import (
	"fmt"

	"provenance/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric/common/flogging"
)

var logger = flogging.MustGetLogger("provenance.contract")

// NotificationEventName is the chaincode event carrying a transaction's notifications.
const NotificationEventName = "ProvenanceNotifications"

// Object types for batch records.
const (
	batchCounterObjectType = "BatchCounter" // Singleton. Value: decimal next batch id.
	batchObjectType        = "Batch"        // Attribute: padded batch id.
	batchHeadObjectType    = "BatchHead"    // Attribute: padded batch id.
	eventObjectType        = "BatchEvent"   // Attributes: padded batch id, padded sequence.
)

// Input limits
const (
	maxDescriptionLength = 1024
	maxLocationLength    = 256
	defaultPageSize      = 20
	maxPageSize          = 100
)

// ProvenanceContract records batches and their append-only event histories.
// Originators create batches, Custodians append events, and the owner manages roles.
// @contract:ProvenanceContract
type ProvenanceContract struct {
	contractapi.Contract
}

// NewProvenanceContract returns the contract with its transaction hooks installed.
func NewProvenanceContract() *ProvenanceContract {
	c := &ProvenanceContract{}
	c.Name = "ProvenanceContract"
	c.BeforeTransaction = logTransaction
	c.UnknownTransaction = rejectUnknownTransaction
	return c
}

func logTransaction(ctx contractapi.TransactionContextInterface) error {
	fn, params := ctx.GetStub().GetFunctionAndParameters()
	logger.Debugf("Chaincode Call: %s (%d args, tx %s)", fn, len(params), ctx.GetStub().GetTxID())
	return nil
}

func rejectUnknownTransaction(ctx contractapi.TransactionContextInterface) error {
	fn, _ := ctx.GetStub().GetFunctionAndParameters()
	return rejectf(ErrInvalidInput, "unknown transaction '%s'", fn)
}

// GetEvaluateTransactions lists the read-only transactions so gateway clients evaluate rather than submit them.
func (s *ProvenanceContract) GetEvaluateTransactions() []string {
	return []string{
		"Owner",
		"IsOriginator",
		"IsCustodian",
		"HasRole",
		"GetRoleMembers",
		"GetBatchDetails",
		"GetBatchHistory",
		"GetBatchWithHistory",
		"GetBatchCount",
		"ListBatches",
		"GetBatchesByOriginator",
	}
}

// InitLedger installs the caller as owner and starts the batch counter at zero.
// It is the deployment step; the owner holds no role until it grants one.
func (s *ProvenanceContract) InitLedger(ctx contractapi.TransactionContextInterface) error {
	owner, err := NewRoleManager(ctx).InstallOwner()
	if err != nil {
		return err
	}
	counterKey, err := createSingletonKey(ctx, batchCounterObjectType)
	if err != nil {
		return fmt.Errorf("InitLedger: failed to create batch counter key: %w", err)
	}
	if err := ctx.GetStub().PutState(counterKey, []byte("0")); err != nil {
		return fmt.Errorf("InitLedger: failed to initialize batch counter: %w", err)
	}
	logger.Infof("Registry initialized by '%s'", describeAccount(owner))
	return nil
}

// Owner returns the account installed by InitLedger.
func (s *ProvenanceContract) Owner(ctx contractapi.TransactionContextInterface) (string, error) {
	owner, exists, err := NewRoleManager(ctx).GetOwner()
	if err != nil {
		return "", fmt.Errorf("Owner: %w", err)
	}
	if !exists {
		return "", rejectf(ErrNotFound, "registry has not been initialized")
	}
	return owner, nil
}

// --- Role Management (owner only) ---

func (s *ProvenanceContract) GrantOriginatorRole(ctx contractapi.TransactionContextInterface, account string) error {
	return NewRoleManager(ctx).Grant(originatorRole, account)
}

func (s *ProvenanceContract) GrantCustodianRole(ctx contractapi.TransactionContextInterface, account string) error {
	return NewRoleManager(ctx).Grant(custodianRole, account)
}

func (s *ProvenanceContract) RevokeOriginatorRole(ctx contractapi.TransactionContextInterface, account string) error {
	return NewRoleManager(ctx).Revoke(originatorRole, account)
}

func (s *ProvenanceContract) RevokeCustodianRole(ctx contractapi.TransactionContextInterface, account string) error {
	return NewRoleManager(ctx).Revoke(custodianRole, account)
}

// --- Role Queries ---

func (s *ProvenanceContract) IsOriginator(ctx contractapi.TransactionContextInterface, account string) (bool, error) {
	return NewRoleManager(ctx).HasRole(originatorRole, account)
}

func (s *ProvenanceContract) IsCustodian(ctx contractapi.TransactionContextInterface, account string) (bool, error) {
	return NewRoleManager(ctx).HasRole(custodianRole, account)
}

// HasRole accepts a role id, role name or short name. Unknown roles are held by nobody.
func (s *ProvenanceContract) HasRole(ctx contractapi.TransactionContextInterface, roleID string, account string) (bool, error) {
	r, ok := lookupRole(roleID)
	if !ok {
		logger.Debugf("HasRole: unknown role '%s'", roleID)
		return false, nil
	}
	return NewRoleManager(ctx).HasRole(r, account)
}

// GetRoleMembers returns the accounts currently holding a role.
func (s *ProvenanceContract) GetRoleMembers(ctx contractapi.TransactionContextInterface, roleID string) ([]string, error) {
	r, ok := lookupRole(roleID)
	if !ok {
		return nil, rejectf(ErrInvalidInput, "unknown role '%s'. Valid roles: %s, %s", roleID, model.OriginatorRoleName, model.CustodianRoleName)
	}
	members, err := NewRoleManager(ctx).Members(r)
	if err != nil {
		return nil, fmt.Errorf("GetRoleMembers: %w", err)
	}
	logger.Debugf("GetRoleMembers: %d accounts hold '%s'", len(members), r.name)
	return members, nil
}
