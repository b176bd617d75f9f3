package contract

import (
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"provenance/model"

	"github.com/hyperledger/fabric-chaincode-go/pkg/cid"
	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-chaincode-go/shimtest"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// testAccount returns the base64 identity cid GetID would report for a
// certificate with the given common name.
func testAccount(name string) string {
	return base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("x509::CN=%s,OU=client::CN=ca.org1.example.com", name)))
}

type fakeIdentity struct {
	id string
}

func (f fakeIdentity) GetID() (string, error) {
	if f.id == "" {
		return "", errors.New("no identity")
	}
	return f.id, nil
}

func (f fakeIdentity) GetMSPID() (string, error) { return "Org1MSP", nil }

func (f fakeIdentity) GetAttributeValue(string) (string, bool, error) { return "", false, nil }

func (f fakeIdentity) AssertAttributeValue(string, string) error { return nil }

func (f fakeIdentity) GetX509Certificate() (*x509.Certificate, error) { return nil, nil }

type testContext struct {
	stub     *shimtest.MockStub
	identity cid.ClientIdentity
}

func (c *testContext) GetStub() shim.ChaincodeStubInterface { return c.stub }

func (c *testContext) GetClientIdentity() cid.ClientIdentity { return c.identity }

// registryHarness drives a ProvenanceContract over a mock stub. Every call
// opens a fresh transaction whose timestamp advances by one second.
type registryHarness struct {
	t        *testing.T
	contract *ProvenanceContract
	stub     *shimtest.MockStub
	clock    time.Time
	txSeq    int
	events   [][]model.Notification

	owner      string
	originator string
	custodian  string
	outsider   string
}

func newRegistryHarness(t *testing.T) *registryHarness {
	h := &registryHarness{
		t:          t,
		contract:   NewProvenanceContract(),
		stub:       shimtest.NewMockStub("provenance", nil),
		clock:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		owner:      testAccount("owner"),
		originator: testAccount("originator1"),
		custodian:  testAccount("custodian1"),
		outsider:   testAccount("user1"),
	}
	return h
}

// newBootstrappedHarness mirrors the deployment fixture: the owner initializes
// the registry, grants Originator to originator1, and Custodian to custodian1
// and originator1.
func newBootstrappedHarness(t *testing.T) *registryHarness {
	h := newRegistryHarness(t)
	require.NoError(t, h.contract.InitLedger(h.as(h.owner)))
	require.NoError(t, h.contract.GrantOriginatorRole(h.as(h.owner), h.originator))
	require.NoError(t, h.contract.GrantCustodianRole(h.as(h.owner), h.custodian))
	require.NoError(t, h.contract.GrantCustodianRole(h.as(h.owner), h.originator))
	h.drainEvents()
	return h
}

// as starts a transaction submitted by account. Events set by the previous
// transaction are collected first.
func (h *registryHarness) as(account string) *testContext {
	h.collectEvents()
	h.txSeq++
	h.stub.MockTransactionStart(fmt.Sprintf("tx%d", h.txSeq))
	h.stub.TxTimestamp = timestamppb.New(h.clock)
	h.clock = h.clock.Add(time.Second)
	return &testContext{stub: h.stub, identity: fakeIdentity{id: account}}
}

func (h *registryHarness) collectEvents() {
	for {
		select {
		case ev := <-h.stub.ChaincodeEventsChannel:
			require.Equal(h.t, NotificationEventName, ev.EventName)
			var notifications []model.Notification
			require.NoError(h.t, json.Unmarshal(ev.Payload, &notifications))
			h.events = append(h.events, notifications)
		default:
			return
		}
	}
}

// drainEvents returns the notification lists emitted since the last drain.
func (h *registryHarness) drainEvents() [][]model.Notification {
	h.collectEvents()
	events := h.events
	h.events = nil
	return events
}

func (h *registryHarness) createBatch(account, description string) uint64 {
	id, err := h.contract.CreateBatch(h.as(account), description)
	require.NoError(h.t, err)
	return id
}

func (h *registryHarness) history(batchID uint64) []model.Event {
	history, err := h.contract.GetBatchHistory(h.as(h.outsider), batchID)
	require.NoError(h.t, err)
	return history
}
