package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// FeeTier is the fee adjustment applied to a class's nominal fee for a student.
// The string values are the labels stored in the database and shown to staff.
type FeeTier string

const (
	FeeTierFull FeeTier = "Full Fee"
	FeeTierHalf FeeTier = "Half Fee"
	FeeTierFree FeeTier = "No Fee (Free)"
)

var (
	multiplierFull = decimal.NewFromInt(1)
	multiplierHalf = decimal.RequireFromString("0.5")
	multiplierFree = decimal.Zero
)

// ParseFeeTier converts a stored label into a FeeTier.
func ParseFeeTier(label string) (FeeTier, error) {
	switch FeeTier(label) {
	case FeeTierFull, FeeTierHalf, FeeTierFree:
		return FeeTier(label), nil
	}
	return "", fmt.Errorf("unknown fee adjustment %q", label)
}

// Valid reports whether t is one of the three known tiers.
func (t FeeTier) Valid() bool {
	_, err := ParseFeeTier(string(t))
	return err == nil
}

// Multiplier returns the factor applied to the nominal fee.
func (t FeeTier) Multiplier() decimal.Decimal {
	switch t {
	case FeeTierHalf:
		return multiplierHalf
	case FeeTierFree:
		return multiplierFree
	default:
		return multiplierFull
	}
}

// Value implements driver.Valuer.
func (t FeeTier) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown fee adjustment %q", string(t))
	}
	return string(t), nil
}

// Scan implements sql.Scanner.
func (t *FeeTier) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("scan fee adjustment: unsupported type %T", src)
	}
	parsed, err := ParseFeeTier(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// UnmarshalJSON rejects labels outside the enumeration.
func (t *FeeTier) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		*t = ""
		return nil
	}
	parsed, err := ParseFeeTier(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
