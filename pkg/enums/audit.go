package enums

import "fmt"

// AuditAction identifies the kind of change recorded in the change log.
type AuditAction string

const (
	AuditActionCreate    AuditAction = "CREATE"
	AuditActionUpdate    AuditAction = "UPDATE"
	AuditActionDelete    AuditAction = "DELETE"
	AuditActionSync      AuditAction = "SYNC"
	AuditActionInventory AuditAction = "INVENTORY"
)

var validAuditActions = []AuditAction{
	AuditActionCreate,
	AuditActionUpdate,
	AuditActionDelete,
	AuditActionSync,
	AuditActionInventory,
}

// String implements fmt.Stringer.
func (a AuditAction) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AuditAction.
func (a AuditAction) IsValid() bool {
	for _, candidate := range validAuditActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAuditAction converts raw input into an AuditAction.
func ParseAuditAction(value string) (AuditAction, error) {
	for _, candidate := range validAuditActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid audit action %q", value)
}

// AuditSource identifies where a change originated.
type AuditSource string

const (
	AuditSourceAPI     AuditSource = "api"
	AuditSourceWebhook AuditSource = "shopify_webhook"
)

// String implements fmt.Stringer.
func (s AuditSource) String() string {
	return string(s)
}

// IsValid reports whether the value is a known AuditSource.
func (s AuditSource) IsValid() bool {
	return s == AuditSourceAPI || s == AuditSourceWebhook
}
