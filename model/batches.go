package model

import "time"

// BatchCreatedDescription is the description of the synthetic event recorded
// atomically with every new batch.
const BatchCreatedDescription = "Batch Created"

// Batch is one tracked lot. It is written once at creation and never mutated.
type Batch struct {
	ObjectType   string    `json:"objectType"` // "Batch"
	ID           uint64    `json:"id"`
	Description  string    `json:"description"`
	Originator   string    `json:"originator"` // Account that created the batch
	CreationTime time.Time `json:"creationTime"`
}

// Event is one entry of a batch history. Sequence 0 is always the creation event.
type Event struct {
	ObjectType  string    `json:"objectType"` // "BatchEvent"
	BatchID     uint64    `json:"batchId"`
	Sequence    uint64    `json:"sequence"`
	Actor       string    `json:"actor"`
	Description string    `json:"description"`
	Location    string    `json:"location"` // May be empty
	Timestamp   time.Time `json:"timestamp"`
	TxID        string    `json:"txId"`
}

// BatchHead tracks the append position and the per-batch clock of a history.
// It is internal bookkeeping and is not returned by queries.
type BatchHead struct {
	ObjectType    string    `json:"objectType"` // "BatchHead"
	BatchID       uint64    `json:"batchId"`
	EventCount    uint64    `json:"eventCount"`
	LastTimestamp time.Time `json:"lastTimestamp"`
}

// BatchWithHistory bundles a batch with its full ordered history.
type BatchWithHistory struct {
	Batch   *Batch  `json:"batch"`
	History []Event `json:"history"`
}

// PaginatedBatchResponse is returned by paged batch listings.
type PaginatedBatchResponse struct {
	Batches      []*Batch `json:"batches"`
	NextStartID  uint64   `json:"nextStartId"`
	FetchedCount int32    `json:"fetchedCount"`
}
