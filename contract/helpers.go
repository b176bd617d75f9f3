package contract

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"provenance/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Core Helper Functions (used across multiple operations) ---

// getCurrentTxTimestamp returns the transaction timestamp truncated to whole seconds.
func getCurrentTxTimestamp(ctx contractapi.TransactionContextInterface) (time.Time, error) {
	ts, err := ctx.GetStub().GetTxTimestamp()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get transaction timestamp: %w", err)
	}
	if ts == nil {
		return time.Time{}, fmt.Errorf("transaction timestamp is missing")
	}
	return ts.AsTime().UTC().Truncate(time.Second), nil
}

// padID renders an id so lexical key order equals numeric order.
func padID(id uint64) string {
	return fmt.Sprintf("%020d", id)
}

func createSingletonKey(ctx contractapi.TransactionContextInterface, objectType string) (string, error) {
	return ctx.GetStub().CreateCompositeKey(objectType, []string{})
}

func createBatchKey(ctx contractapi.TransactionContextInterface, batchID uint64) (string, error) {
	return ctx.GetStub().CreateCompositeKey(batchObjectType, []string{padID(batchID)})
}

func createBatchHeadKey(ctx contractapi.TransactionContextInterface, batchID uint64) (string, error) {
	return ctx.GetStub().CreateCompositeKey(batchHeadObjectType, []string{padID(batchID)})
}

func createEventKey(ctx contractapi.TransactionContextInterface, batchID, seq uint64) (string, error) {
	return ctx.GetStub().CreateCompositeKey(eventObjectType, []string{padID(batchID), padID(seq)})
}

// putJSON marshals value and writes it under key.
func putJSON(ctx contractapi.TransactionContextInterface, key string, value interface{}) error {
	bytes, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for key '%s': %w", key, err)
	}
	if err := ctx.GetStub().PutState(key, bytes); err != nil {
		return fmt.Errorf("failed to save key '%s': %w", key, err)
	}
	return nil
}

// getJSON reads key into target. It reports false when the key is absent.
func getJSON(ctx contractapi.TransactionContextInterface, key string, target interface{}) (bool, error) {
	bytes, err := ctx.GetStub().GetState(key)
	if err != nil {
		return false, fmt.Errorf("failed to read key '%s' from ledger: %w", key, err)
	}
	if bytes == nil {
		return false, nil
	}
	if err := json.Unmarshal(bytes, target); err != nil {
		return false, fmt.Errorf("failed to unmarshal value for key '%s': %w", key, err)
	}
	return true, nil
}

// --- Validation Helper Functions ---

// validateRequiredText trims input and rejects empty or oversized values.
func validateRequiredText(input, field string, max int) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", rejectf(ErrInvalidInput, "%s cannot be empty", field)
	}
	if len(trimmed) > max {
		return "", rejectf(ErrInvalidInput, "%s exceeds max length %d", field, max)
	}
	return trimmed, nil
}

// validateOptionalText trims input and rejects oversized values. Empty is allowed.
func validateOptionalText(input, field string, max int) (string, error) {
	trimmed := strings.TrimSpace(input)
	if len(trimmed) > max {
		return "", rejectf(ErrInvalidInput, "%s exceeds max length %d", field, max)
	}
	return trimmed, nil
}

// --- Notifications ---

// emitNotifications publishes the ordered notifications of one transaction as
// a single chaincode event. Fabric keeps only the last event set per
// transaction, so the list is the unit of emission.
func emitNotifications(ctx contractapi.TransactionContextInterface, notifications []model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	payload, err := json.Marshal(notifications)
	if err != nil {
		return fmt.Errorf("failed to marshal notifications: %w", err)
	}
	if err := ctx.GetStub().SetEvent(NotificationEventName, payload); err != nil {
		return fmt.Errorf("failed to set event '%s': %w", NotificationEventName, err)
	}
	return nil
}

func batchIDRef(id uint64) *uint64 {
	return &id
}
