package enums

import "fmt"

// BrandRole captures the access level a user holds on a brand.
type BrandRole string

const (
	BrandRoleOwner  BrandRole = "owner"
	BrandRoleEditor BrandRole = "editor"
)

var validBrandRoles = []BrandRole{
	BrandRoleOwner,
	BrandRoleEditor,
}

// String implements fmt.Stringer.
func (r BrandRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known BrandRole.
func (r BrandRole) IsValid() bool {
	for _, candidate := range validBrandRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseBrandRole converts raw input into a BrandRole.
func ParseBrandRole(value string) (BrandRole, error) {
	for _, candidate := range validBrandRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid brand role %q", value)
}
