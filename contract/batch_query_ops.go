package contract

import (
	"encoding/json"
	"fmt"
	"strconv"

	"provenance/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Internal Readers ---

// getBatchCount reads the next batch id, which equals the number of batches.
func (s *ProvenanceContract) getBatchCount(ctx contractapi.TransactionContextInterface) (uint64, error) {
	counterKey, err := createSingletonKey(ctx, batchCounterObjectType)
	if err != nil {
		return 0, fmt.Errorf("failed to create batch counter key: %w", err)
	}
	raw, err := ctx.GetStub().GetState(counterKey)
	if err != nil {
		return 0, fmt.Errorf("failed to read batch counter: %w", err)
	}
	if raw == nil {
		return 0, nil
	}
	count, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("batch counter holds invalid value '%s': %w", string(raw), err)
	}
	return count, nil
}

func (s *ProvenanceContract) getBatch(ctx contractapi.TransactionContextInterface, batchID uint64) (*model.Batch, error) {
	batchKey, err := createBatchKey(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to create key for batch %d: %w", batchID, err)
	}
	var batch model.Batch
	found, err := getJSON(ctx, batchKey, &batch)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, rejectf(ErrNotFound, "batch ID %d does not exist", batchID)
	}
	return &batch, nil
}

func (s *ProvenanceContract) getBatchHead(ctx contractapi.TransactionContextInterface, batchID uint64) (*model.BatchHead, error) {
	headKey, err := createBatchHeadKey(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to create head key for batch %d: %w", batchID, err)
	}
	var head model.BatchHead
	found, err := getJSON(ctx, headKey, &head)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, rejectf(ErrNotFound, "batch ID %d does not exist", batchID)
	}
	return &head, nil
}

// getHistory scans the event keys of one batch. Composite key order equals
// sequence order because ids are zero padded.
func (s *ProvenanceContract) getHistory(ctx contractapi.TransactionContextInterface, batchID uint64) ([]model.Event, error) {
	iterator, err := ctx.GetStub().GetStateByPartialCompositeKey(eventObjectType, []string{padID(batchID)})
	if err != nil {
		return nil, fmt.Errorf("failed to get history iterator for batch %d: %w", batchID, err)
	}
	defer iterator.Close()

	history := []model.Event{}
	for iterator.HasNext() {
		entry, iterErr := iterator.Next()
		if iterErr != nil {
			return nil, fmt.Errorf("failed to iterate history of batch %d: %w", batchID, iterErr)
		}
		var event model.Event
		if err := json.Unmarshal(entry.Value, &event); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event '%s' of batch %d: %w", entry.Key, batchID, err)
		}
		history = append(history, event)
	}
	return history, nil
}

// --- Query Functions ---

// GetBatchDetails returns the immutable record of a batch.
func (s *ProvenanceContract) GetBatchDetails(ctx contractapi.TransactionContextInterface, batchID uint64) (*model.Batch, error) {
	logger.Debugf("GetBatchDetails: Querying batch %d", batchID)
	return s.getBatch(ctx, batchID)
}

// GetBatchHistory returns every event of a batch, creation event first.
func (s *ProvenanceContract) GetBatchHistory(ctx contractapi.TransactionContextInterface, batchID uint64) ([]model.Event, error) {
	logger.Debugf("GetBatchHistory: Querying history of batch %d", batchID)
	if _, err := s.getBatchHead(ctx, batchID); err != nil {
		return nil, err
	}
	return s.getHistory(ctx, batchID)
}

// GetBatchWithHistory returns a batch and its history from one read.
func (s *ProvenanceContract) GetBatchWithHistory(ctx contractapi.TransactionContextInterface, batchID uint64) (*model.BatchWithHistory, error) {
	batch, err := s.getBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	history, err := s.getHistory(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("GetBatchWithHistory: %w", err)
	}
	return &model.BatchWithHistory{Batch: batch, History: history}, nil
}

// GetBatchCount returns the number of batches ever created.
func (s *ProvenanceContract) GetBatchCount(ctx contractapi.TransactionContextInterface) (uint64, error) {
	count, err := s.getBatchCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("GetBatchCount: %w", err)
	}
	return count, nil
}

// ListBatches pages through batches in id order starting at startID. A
// pageSize of 0 selects the default page size.
func (s *ProvenanceContract) ListBatches(ctx contractapi.TransactionContextInterface, startID uint64, pageSize int) (*model.PaginatedBatchResponse, error) {
	if pageSize == 0 {
		pageSize = defaultPageSize
	}
	if pageSize < 0 || pageSize > maxPageSize {
		return nil, rejectf(ErrInvalidInput, "pageSize must be between 1 and %d", maxPageSize)
	}

	count, err := s.getBatchCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListBatches: %w", err)
	}

	response := &model.PaginatedBatchResponse{Batches: []*model.Batch{}, NextStartID: count}
	if startID >= count {
		return response, nil
	}
	end := startID + uint64(pageSize)
	if end > count {
		end = count
	}
	for id := startID; id < end; id++ {
		batch, err := s.getBatch(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("ListBatches: %w", err)
		}
		response.Batches = append(response.Batches, batch)
	}
	response.NextStartID = end
	response.FetchedCount = int32(len(response.Batches))
	logger.Debugf("ListBatches: Returning %d batches from %d", response.FetchedCount, startID)
	return response, nil
}

// GetBatchesByOriginator returns the batches created by account, in id order.
func (s *ProvenanceContract) GetBatchesByOriginator(ctx contractapi.TransactionContextInterface, account string) ([]*model.Batch, error) {
	originator, err := normalizeAccount(account)
	if err != nil {
		return nil, err
	}

	iterator, err := ctx.GetStub().GetStateByPartialCompositeKey(batchObjectType, []string{})
	if err != nil {
		return nil, fmt.Errorf("GetBatchesByOriginator: failed to get batches iterator: %w", err)
	}
	defer iterator.Close()

	batches := []*model.Batch{}
	for iterator.HasNext() {
		entry, iterErr := iterator.Next()
		if iterErr != nil {
			return nil, fmt.Errorf("GetBatchesByOriginator: failed to iterate batches: %w", iterErr)
		}
		var batch model.Batch
		if err := json.Unmarshal(entry.Value, &batch); err != nil {
			logger.Warningf("GetBatchesByOriginator: Failed to unmarshal batch '%s': %v. Skipping.", entry.Key, err)
			continue
		}
		if batch.Originator == originator {
			b := batch
			batches = append(batches, &b)
		}
	}
	logger.Debugf("GetBatchesByOriginator: Returning %d batches for '%s'", len(batches), describeAccount(originator))
	return batches, nil
}
