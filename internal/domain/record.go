package domain

import "strings"

// Record is the value stored on the ledger under a record ID.
//
// The ID is not part of the stored payload; it is the ledger key.
type Record struct {
	Value string `json:"value"`
}

// ValidateRecordID reports whether id can be used as a ledger key.
func ValidateRecordID(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidRecordID
	}
	return nil
}
