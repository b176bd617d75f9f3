package contract

import (
	"strings"
	"testing"
	"time"

	"provenance/model"

	"github.com/stretchr/testify/require"
)

func TestCreateBatch(t *testing.T) {
	h := newBootstrappedHarness(t)

	id, err := h.contract.CreateBatch(h.as(h.originator), "Batch of Organic Apples")
	require.NoError(t, err)
	require.Equal(t, uint64(0), id)

	events := h.drainEvents()
	require.Len(t, events, 1)
	require.Len(t, events[0], 2)
	require.Equal(t, model.NotificationBatchCreated, events[0][0].Kind)
	require.Equal(t, uint64(0), *events[0][0].BatchID)
	require.Equal(t, h.originator, events[0][0].Actor)
	require.Equal(t, "Batch of Organic Apples", events[0][0].Description)
	require.Equal(t, model.NotificationEventAdded, events[0][1].Kind)
	require.Equal(t, uint64(0), *events[0][1].BatchID)
	require.Equal(t, h.originator, events[0][1].Actor)
	require.Equal(t, model.BatchCreatedDescription, events[0][1].Description)

	batch, err := h.contract.GetBatchDetails(h.as(h.outsider), id)
	require.NoError(t, err)
	require.Equal(t, uint64(0), batch.ID)
	require.Equal(t, "Batch of Organic Apples", batch.Description)
	require.Equal(t, h.originator, batch.Originator)
	require.False(t, batch.CreationTime.IsZero())

	history := h.history(id)
	require.Len(t, history, 1)
	require.Equal(t, model.BatchCreatedDescription, history[0].Description)
	require.Equal(t, h.originator, history[0].Actor)
	require.Equal(t, "", history[0].Location)
	require.Equal(t, batch.CreationTime, history[0].Timestamp)

	count, err := h.contract.GetBatchCount(h.as(h.outsider))
	require.NoError(t, err)
	require.Equal(t, uint64(1), count)
}

func TestCreateBatch_SequentialIDsAcrossOriginators(t *testing.T) {
	h := newBootstrappedHarness(t)
	second := testAccount("originator2")
	require.NoError(t, h.contract.GrantOriginatorRole(h.as(h.owner), second))

	require.Equal(t, uint64(0), h.createBatch(h.originator, "Batch 1"))
	require.Equal(t, uint64(1), h.createBatch(second, "Batch 2"))
	require.Equal(t, uint64(2), h.createBatch(h.originator, "Batch 3"))

	count, err := h.contract.GetBatchCount(h.as(h.outsider))
	require.NoError(t, err)
	require.Equal(t, uint64(3), count)

	batch, err := h.contract.GetBatchDetails(h.as(h.outsider), 1)
	require.NoError(t, err)
	require.Equal(t, second, batch.Originator)
}

func TestCreateBatch_RequiresOriginator(t *testing.T) {
	h := newBootstrappedHarness(t)

	for _, caller := range []string{h.custodian, h.outsider, h.owner} {
		_, err := h.contract.CreateBatch(h.as(caller), "Test Batch")
		require.ErrorIs(t, err, ErrUnauthorized)
		require.EqualError(t, err, "unauthorized: caller is not an Originator")
	}

	count, err := h.contract.GetBatchCount(h.as(h.outsider))
	require.NoError(t, err)
	require.Equal(t, uint64(0), count)
	require.Empty(t, h.drainEvents())
}

func TestCreateBatch_InvalidDescription(t *testing.T) {
	h := newBootstrappedHarness(t)

	for _, description := range []string{"", "   \t", strings.Repeat("x", maxDescriptionLength+1)} {
		_, err := h.contract.CreateBatch(h.as(h.originator), description)
		require.ErrorIs(t, err, ErrInvalidInput)
	}

	_, err := h.contract.CreateBatch(h.as(h.originator), "")
	require.EqualError(t, err, "invalid input: description cannot be empty")

	count, err := h.contract.GetBatchCount(h.as(h.outsider))
	require.NoError(t, err)
	require.Equal(t, uint64(0), count)
	require.Empty(t, h.drainEvents())
}

func TestCreateBatch_TrimsDescription(t *testing.T) {
	h := newBootstrappedHarness(t)

	id := h.createBatch(h.originator, "  Lot X \n")
	batch, err := h.contract.GetBatchDetails(h.as(h.outsider), id)
	require.NoError(t, err)
	require.Equal(t, "Lot X", batch.Description)
}

func TestAddEvent(t *testing.T) {
	h := newBootstrappedHarness(t)
	id := h.createBatch(h.originator, "Initial Batch")
	h.drainEvents()

	err := h.contract.AddEvent(h.as(h.custodian), id, "Shipped via Cold Storage Truck", "Warehouse A")
	require.NoError(t, err)

	events := h.drainEvents()
	require.Len(t, events, 1)
	require.Len(t, events[0], 1)
	require.Equal(t, model.NotificationEventAdded, events[0][0].Kind)
	require.Equal(t, id, *events[0][0].BatchID)
	require.Equal(t, h.custodian, events[0][0].Actor)
	require.Equal(t, "Shipped via Cold Storage Truck", events[0][0].Description)

	history := h.history(id)
	require.Len(t, history, 2)
	require.Equal(t, "Shipped via Cold Storage Truck", history[1].Description)
	require.Equal(t, "Warehouse A", history[1].Location)
	require.Equal(t, h.custodian, history[1].Actor)
	require.Equal(t, uint64(1), history[1].Sequence)
	require.True(t, history[1].Timestamp.After(history[0].Timestamp))
}

func TestAddEvent_OriginatorWithCustodianRole(t *testing.T) {
	h := newBootstrappedHarness(t)
	id := h.createBatch(h.originator, "Initial Batch")

	require.NoError(t, h.contract.AddEvent(h.as(h.originator), id, "Quality Inspected", "Origin Facility"))

	history := h.history(id)
	require.Len(t, history, 2)
	require.Equal(t, "Quality Inspected", history[1].Description)
	require.Equal(t, h.originator, history[1].Actor)
}

func TestAddEvent_RequiresCustodian(t *testing.T) {
	h := newBootstrappedHarness(t)
	id := h.createBatch(h.originator, "Initial Batch")
	h.drainEvents()

	err := h.contract.AddEvent(h.as(h.outsider), id, "Tampering Attempt", "")
	require.ErrorIs(t, err, ErrUnauthorized)
	require.EqualError(t, err, "unauthorized: caller is not a Custodian")

	require.Len(t, h.history(id), 1)
	require.Empty(t, h.drainEvents())
}

func TestAddEvent_UnknownBatch(t *testing.T) {
	h := newBootstrappedHarness(t)
	h.createBatch(h.originator, "Initial Batch")

	err := h.contract.AddEvent(h.as(h.custodian), 999, "Test Event", "")
	require.ErrorIs(t, err, ErrNotFound)
	require.EqualError(t, err, "not found: batch ID 999 does not exist")
}

func TestAddEvent_InvalidInput(t *testing.T) {
	h := newBootstrappedHarness(t)
	id := h.createBatch(h.originator, "Initial Batch")
	h.drainEvents()

	err := h.contract.AddEvent(h.as(h.custodian), id, "", "Location")
	require.ErrorIs(t, err, ErrInvalidInput)
	require.EqualError(t, err, "invalid input: event description cannot be empty")

	err = h.contract.AddEvent(h.as(h.custodian), id, "Stored", strings.Repeat("l", maxLocationLength+1))
	require.ErrorIs(t, err, ErrInvalidInput)

	require.Len(t, h.history(id), 1)
	require.Empty(t, h.drainEvents())
}

func TestAddEvent_LeavesOtherBatchesUnchanged(t *testing.T) {
	h := newBootstrappedHarness(t)
	first := h.createBatch(h.originator, "Batch Alpha")
	second := h.createBatch(h.originator, "Batch Beta")

	require.NoError(t, h.contract.AddEvent(h.as(h.custodian), second, "Event B1", "Loc B1"))

	require.Len(t, h.history(first), 1)
	require.Len(t, h.history(second), 2)
}

func TestAddEvent_TimestampNeverDecreases(t *testing.T) {
	h := newBootstrappedHarness(t)
	id := h.createBatch(h.originator, "Initial Batch")
	require.NoError(t, h.contract.AddEvent(h.as(h.custodian), id, "Received", "Dock 1"))

	// A lagging proposal timestamp must not move the history backwards.
	h.clock = h.clock.Add(-10 * time.Minute)
	require.NoError(t, h.contract.AddEvent(h.as(h.custodian), id, "Inspected", "Dock 1"))

	history := h.history(id)
	require.Len(t, history, 3)
	for i := 1; i < len(history); i++ {
		require.False(t, history[i].Timestamp.Before(history[i-1].Timestamp), "event %d", i)
	}
	require.Equal(t, history[1].Timestamp, history[2].Timestamp)
}

func TestRevokedRole_HistoryRemains(t *testing.T) {
	h := newBootstrappedHarness(t)
	id := h.createBatch(h.originator, "Lot X")
	require.NoError(t, h.contract.AddEvent(h.as(h.custodian), id, "Shipped", "Dock 7"))

	require.NoError(t, h.contract.RevokeOriginatorRole(h.as(h.owner), h.originator))
	require.NoError(t, h.contract.RevokeCustodianRole(h.as(h.owner), h.custodian))

	batch, err := h.contract.GetBatchDetails(h.as(h.outsider), id)
	require.NoError(t, err)
	require.Equal(t, h.originator, batch.Originator)

	history := h.history(id)
	require.Len(t, history, 2)
	require.Equal(t, h.custodian, history[1].Actor)

	_, err = h.contract.CreateBatch(h.as(h.originator), "Lot Y")
	require.ErrorIs(t, err, ErrUnauthorized)
	err = h.contract.AddEvent(h.as(h.custodian), id, "Delivered", "")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestProvenanceScenario(t *testing.T) {
	h := newRegistryHarness(t)
	a, b, c := testAccount("A"), testAccount("B"), testAccount("C")

	require.NoError(t, h.contract.InitLedger(h.as(h.owner)))
	require.NoError(t, h.contract.GrantOriginatorRole(h.as(h.owner), a))
	require.NoError(t, h.contract.GrantCustodianRole(h.as(h.owner), b))

	id, err := h.contract.CreateBatch(h.as(a), "Lot X")
	require.NoError(t, err)
	require.Equal(t, uint64(0), id)
	require.Len(t, h.history(0), 1)

	require.NoError(t, h.contract.AddEvent(h.as(b), 0, "Shipped", "Dock 7"))
	history := h.history(0)
	require.Len(t, history, 2)
	require.Equal(t, b, history[1].Actor)
	require.Equal(t, "Dock 7", history[1].Location)

	err = h.contract.AddEvent(h.as(c), 0, "Hack", "")
	require.ErrorIs(t, err, ErrUnauthorized)
	require.Len(t, h.history(0), 2)
}
