package model

import "time"

// Role names as published in notifications and accepted by role queries.
const (
	OriginatorRoleName = "ORIGINATOR_ROLE"
	CustodianRoleName  = "CUSTODIAN_ROLE"
)

// RoleAssignment stores the role flags held by one account.
type RoleAssignment struct {
	ObjectType   string    `json:"objectType"` // "RoleAssignment"
	Account      string    `json:"account"`    // Base64 X.509 identity as returned by cid GetID
	IsOriginator bool      `json:"isOriginator"`
	IsCustodian  bool      `json:"isCustodian"`
	GrantedBy    string    `json:"grantedBy"` // Owner account that last changed the flags
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NotificationKind names a registry notification.
type NotificationKind string

const (
	NotificationRoleGranted  NotificationKind = "RoleGranted"
	NotificationRoleRevoked  NotificationKind = "RoleRevoked"
	NotificationBatchCreated NotificationKind = "BatchCreated"
	NotificationEventAdded   NotificationKind = "EventAdded"
)

// Notification is one entry of the ordered notification list emitted by a
// committed transaction. Role fields are set for role notifications, batch
// fields for batch notifications.
type Notification struct {
	Kind        NotificationKind `json:"kind"`
	RoleID      string           `json:"roleId,omitempty"`
	RoleName    string           `json:"roleName,omitempty"`
	Account     string           `json:"account,omitempty"`
	BatchID     *uint64          `json:"batchId,omitempty"`
	Actor       string           `json:"actor,omitempty"`
	Description string           `json:"description,omitempty"`
	TxID        string           `json:"txId"`
	Timestamp   time.Time        `json:"timestamp"`
}
