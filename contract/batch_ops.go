package contract

import (
	"fmt"
	"strconv"

	"provenance/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Batch Operations ---

// CreateBatch registers a new batch owned by the calling Originator and records
// its "Batch Created" event in the same transaction. It returns the new batch id.
func (s *ProvenanceContract) CreateBatch(ctx contractapi.TransactionContextInterface, description string) (uint64, error) {
	caller, err := NewRoleManager(ctx).RequireRole(originatorRole)
	if err != nil {
		return 0, err
	}
	description, err = validateRequiredText(description, "description", maxDescriptionLength)
	if err != nil {
		return 0, err
	}

	batchID, err := s.getBatchCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("CreateBatch: %w", err)
	}
	now, err := getCurrentTxTimestamp(ctx)
	if err != nil {
		return 0, fmt.Errorf("CreateBatch: %w", err)
	}
	txID := ctx.GetStub().GetTxID()

	logger.Infof("Originator '%s' creating batch %d: %s", describeAccount(caller), batchID, description)

	batch := model.Batch{
		ObjectType:   batchObjectType,
		ID:           batchID,
		Description:  description,
		Originator:   caller,
		CreationTime: now,
	}
	created := model.Event{
		ObjectType:  eventObjectType,
		BatchID:     batchID,
		Sequence:    0,
		Actor:       caller,
		Description: model.BatchCreatedDescription,
		Location:    "",
		Timestamp:   now,
		TxID:        txID,
	}
	head := model.BatchHead{
		ObjectType:    batchHeadObjectType,
		BatchID:       batchID,
		EventCount:    1,
		LastTimestamp: now,
	}

	counterKey, err := createSingletonKey(ctx, batchCounterObjectType)
	if err != nil {
		return 0, fmt.Errorf("CreateBatch: failed to create batch counter key: %w", err)
	}
	batchKey, err := createBatchKey(ctx, batchID)
	if err != nil {
		return 0, fmt.Errorf("CreateBatch: failed to create key for batch %d: %w", batchID, err)
	}
	headKey, err := createBatchHeadKey(ctx, batchID)
	if err != nil {
		return 0, fmt.Errorf("CreateBatch: failed to create head key for batch %d: %w", batchID, err)
	}
	eventKey, err := createEventKey(ctx, batchID, 0)
	if err != nil {
		return 0, fmt.Errorf("CreateBatch: failed to create event key for batch %d: %w", batchID, err)
	}

	if err := ctx.GetStub().PutState(counterKey, []byte(strconv.FormatUint(batchID+1, 10))); err != nil {
		return 0, fmt.Errorf("CreateBatch: failed to advance batch counter: %w", err)
	}
	if err := putJSON(ctx, batchKey, batch); err != nil {
		return 0, fmt.Errorf("CreateBatch: failed to save batch %d: %w", batchID, err)
	}
	if err := putJSON(ctx, eventKey, created); err != nil {
		return 0, fmt.Errorf("CreateBatch: failed to save creation event for batch %d: %w", batchID, err)
	}
	if err := putJSON(ctx, headKey, head); err != nil {
		return 0, fmt.Errorf("CreateBatch: failed to save head for batch %d: %w", batchID, err)
	}

	if err := emitNotifications(ctx, []model.Notification{
		{Kind: model.NotificationBatchCreated, BatchID: batchIDRef(batchID), Actor: caller, Description: description, TxID: txID, Timestamp: now},
		{Kind: model.NotificationEventAdded, BatchID: batchIDRef(batchID), Actor: caller, Description: model.BatchCreatedDescription, TxID: txID, Timestamp: now},
	}); err != nil {
		return 0, fmt.Errorf("CreateBatch: %w", err)
	}

	logger.Infof("Batch %d created successfully by originator '%s'", batchID, describeAccount(caller))
	return batchID, nil
}

// AddEvent appends an event recorded by the calling Custodian to an existing
// batch history. Location may be empty.
func (s *ProvenanceContract) AddEvent(ctx contractapi.TransactionContextInterface, batchID uint64, description string, location string) error {
	caller, err := NewRoleManager(ctx).RequireRole(custodianRole)
	if err != nil {
		return err
	}

	head, err := s.getBatchHead(ctx, batchID)
	if err != nil {
		return err
	}

	description, err = validateRequiredText(description, "event description", maxDescriptionLength)
	if err != nil {
		return err
	}
	location, err = validateOptionalText(location, "location", maxLocationLength)
	if err != nil {
		return err
	}

	now, err := getCurrentTxTimestamp(ctx)
	if err != nil {
		return fmt.Errorf("AddEvent: %w", err)
	}
	// Proposal timestamps come from clients and may lag an already committed event.
	if now.Before(head.LastTimestamp) {
		now = head.LastTimestamp
	}
	txID := ctx.GetStub().GetTxID()

	logger.Infof("Custodian '%s' adding event %d to batch %d: %s", describeAccount(caller), head.EventCount, batchID, description)

	event := model.Event{
		ObjectType:  eventObjectType,
		BatchID:     batchID,
		Sequence:    head.EventCount,
		Actor:       caller,
		Description: description,
		Location:    location,
		Timestamp:   now,
		TxID:        txID,
	}
	eventKey, err := createEventKey(ctx, batchID, event.Sequence)
	if err != nil {
		return fmt.Errorf("AddEvent: failed to create event key for batch %d: %w", batchID, err)
	}
	headKey, err := createBatchHeadKey(ctx, batchID)
	if err != nil {
		return fmt.Errorf("AddEvent: failed to create head key for batch %d: %w", batchID, err)
	}

	head.EventCount++
	head.LastTimestamp = now

	if err := putJSON(ctx, eventKey, event); err != nil {
		return fmt.Errorf("AddEvent: failed to save event for batch %d: %w", batchID, err)
	}
	if err := putJSON(ctx, headKey, head); err != nil {
		return fmt.Errorf("AddEvent: failed to save head for batch %d: %w", batchID, err)
	}

	if err := emitNotifications(ctx, []model.Notification{
		{Kind: model.NotificationEventAdded, BatchID: batchIDRef(batchID), Actor: caller, Description: description, TxID: txID, Timestamp: now},
	}); err != nil {
		return fmt.Errorf("AddEvent: %w", err)
	}

	logger.Infof("Event added to batch %d by custodian '%s'", batchID, describeAccount(caller))
	return nil
}
