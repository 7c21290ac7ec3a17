package enums

import "fmt"

// SyncStatus records the outcome of pushing a product to the remote platform.
type SyncStatus string

const (
	SyncStatusSuccess SyncStatus = "SUCCESS"
	SyncStatusFailed  SyncStatus = "FAILED"
)

var validSyncStatuses = []SyncStatus{
	SyncStatusSuccess,
	SyncStatusFailed,
}

// String implements fmt.Stringer.
func (s SyncStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SyncStatus.
func (s SyncStatus) IsValid() bool {
	for _, candidate := range validSyncStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSyncStatus converts raw input into a SyncStatus.
func ParseSyncStatus(value string) (SyncStatus, error) {
	for _, candidate := range validSyncStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sync status %q", value)
}

// InventorySyncStatus tracks whether a variant's local quantity matches the
// remote platform.
type InventorySyncStatus string

const (
	InventorySyncStatusInSync    InventorySyncStatus = "IN_SYNC"
	InventorySyncStatusOutOfSync InventorySyncStatus = "OUT_OF_SYNC"
)

var validInventorySyncStatuses = []InventorySyncStatus{
	InventorySyncStatusInSync,
	InventorySyncStatusOutOfSync,
}

// String implements fmt.Stringer.
func (s InventorySyncStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known InventorySyncStatus.
func (s InventorySyncStatus) IsValid() bool {
	for _, candidate := range validInventorySyncStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseInventorySyncStatus converts raw input into an InventorySyncStatus.
func ParseInventorySyncStatus(value string) (InventorySyncStatus, error) {
	for _, candidate := range validInventorySyncStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid inventory sync status %q", value)
}
