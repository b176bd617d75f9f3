package contract

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

const x509IDPrefix = "x509::"

// normalizeAccount converts an account given either as the base64 identity
// returned by cid GetID or as its decoded "x509::<subject>::<issuer>" form into
// the base64 form used for storage and comparison.
func normalizeAccount(account string) (string, error) {
	account = strings.TrimSpace(account)
	if account == "" {
		return "", rejectf(ErrInvalidAccount, "account cannot be empty")
	}

	decoded := account
	if !strings.HasPrefix(account, x509IDPrefix) {
		raw, err := base64.StdEncoding.DecodeString(account)
		if err != nil {
			return "", rejectf(ErrInvalidAccount, "account '%s' is neither an X.509 identity nor its base64 encoding", account)
		}
		decoded = string(raw)
	}

	if !isValidX509ID(decoded) {
		return "", rejectf(ErrInvalidAccount, "account '%s' is not a well-formed X.509 identity", account)
	}
	return base64.StdEncoding.EncodeToString([]byte(decoded)), nil
}

// isValidX509ID reports whether id has the "x509::<subject>::<issuer>" shape
// with both distinguished names present.
func isValidX509ID(id string) bool {
	if !strings.HasPrefix(id, x509IDPrefix) {
		return false
	}
	parts := strings.SplitN(strings.TrimPrefix(id, x509IDPrefix), "::", 2)
	return len(parts) == 2 && strings.TrimSpace(parts[0]) != "" && strings.TrimSpace(parts[1]) != ""
}

// callerAccount returns the authenticated account of the transaction submitter.
// The identity comes from the signed proposal and cannot be supplied as an argument.
func callerAccount(ctx contractapi.TransactionContextInterface) (string, error) {
	clientIdentity := ctx.GetClientIdentity()
	if clientIdentity == nil {
		return "", errors.New("client identity is nil from context")
	}
	id, err := clientIdentity.GetID()
	if err != nil {
		return "", fmt.Errorf("failed to get client identity ID from context: %w", err)
	}
	if id == "" {
		return "", errors.New("client identity ID from context is empty")
	}
	return id, nil
}

// describeAccount renders an account for log lines, preferring the decoded subject.
func describeAccount(account string) string {
	raw, err := base64.StdEncoding.DecodeString(account)
	if err != nil || !isValidX509ID(string(raw)) {
		return account
	}
	parts := strings.SplitN(strings.TrimPrefix(string(raw), x509IDPrefix), "::", 2)
	return parts[0]
}
