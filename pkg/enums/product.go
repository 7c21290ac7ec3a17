package enums

import "fmt"

// ProductStatus represents the lifecycle state of a catalogue product.
type ProductStatus string

const (
	ProductStatusDraft    ProductStatus = "DRAFT"
	ProductStatusActive   ProductStatus = "ACTIVE"
	ProductStatusArchived ProductStatus = "ARCHIVED"
)

var validProductStatuses = []ProductStatus{
	ProductStatusDraft,
	ProductStatusActive,
	ProductStatusArchived,
}

// String implements fmt.Stringer.
func (s ProductStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ProductStatus.
func (s ProductStatus) IsValid() bool {
	for _, candidate := range validProductStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseProductStatus converts raw input into a ProductStatus.
func ParseProductStatus(value string) (ProductStatus, error) {
	for _, candidate := range validProductStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product status %q", value)
}

// WeightUnit defines the variant weight units accepted by the remote platform.
type WeightUnit string

const (
	WeightUnitGrams     WeightUnit = "GRAMS"
	WeightUnitKilograms WeightUnit = "KILOGRAMS"
	WeightUnitOunces    WeightUnit = "OUNCES"
	WeightUnitPounds    WeightUnit = "POUNDS"
)

var validWeightUnits = []WeightUnit{
	WeightUnitGrams,
	WeightUnitKilograms,
	WeightUnitOunces,
	WeightUnitPounds,
}

// String implements fmt.Stringer.
func (u WeightUnit) String() string {
	return string(u)
}

// IsValid reports whether the value is a known WeightUnit.
func (u WeightUnit) IsValid() bool {
	for _, candidate := range validWeightUnits {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseWeightUnit converts raw input into a WeightUnit.
func ParseWeightUnit(value string) (WeightUnit, error) {
	for _, candidate := range validWeightUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid weight unit %q", value)
}
