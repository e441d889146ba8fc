package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Declared data types for world constants.
const (
	DataTypeInteger = "INTEGER"
	DataTypeReal    = "REAL"
	DataTypeText    = "TEXT"
	DataTypeBoolean = "BOOLEAN"
)

var validDataTypes = map[string]bool{
	DataTypeInteger: true,
	DataTypeReal:    true,
	DataTypeText:    true,
	DataTypeBoolean: true,
}

// IsValidDataType reports whether dt is one of the DataType constants.
func IsValidDataType(dt string) bool {
	return validDataTypes[dt]
}

// WorldConstant is a named, typed value scoped to a world. The value is
// stored as text and coerced by TypedValue.
type WorldConstant struct {
	ID          int64  `json:"constant_id"`
	WorldID     int64  `json:"world_id"`
	Key         string `json:"constant_key"` // Unique per world.
	Value       string `json:"constant_value"`
	DataType    string `json:"data_type"` // Empty means TEXT.
	Description string `json:"description"`
}

// NewConstant builds a constant from a Go value, inferring the data type:
// integers map to INTEGER, floats to REAL, bools to BOOLEAN, and anything
// else is formatted as TEXT.
func NewConstant(worldID int64, key string, value any, description string) *WorldConstant {
	c := &WorldConstant{WorldID: worldID, Key: key, Description: description}
	switch v := value.(type) {
	case int:
		c.DataType, c.Value = DataTypeInteger, strconv.FormatInt(int64(v), 10)
	case int32:
		c.DataType, c.Value = DataTypeInteger, strconv.FormatInt(int64(v), 10)
	case int64:
		c.DataType, c.Value = DataTypeInteger, strconv.FormatInt(v, 10)
	case float32:
		c.DataType, c.Value = DataTypeReal, strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		c.DataType, c.Value = DataTypeReal, strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		c.DataType, c.Value = DataTypeBoolean, strconv.FormatBool(v)
	case string:
		c.DataType, c.Value = DataTypeText, v
	default:
		c.DataType, c.Value = DataTypeText, fmt.Sprint(v)
	}
	return c
}

// EffectiveDataType returns DataType, defaulting to TEXT when unset.
func (c *WorldConstant) EffectiveDataType() string {
	if c.DataType == "" {
		return DataTypeText
	}
	return c.DataType
}

// TypedValue coerces Value to its declared type: int64 for INTEGER, float64
// for REAL, bool for BOOLEAN, string for TEXT. Text that does not parse as
// the declared type returns an error wrapping ErrInvalidConstantValue.
func (c *WorldConstant) TypedValue() (any, error) {
	raw := strings.TrimSpace(c.Value)
	switch c.EffectiveDataType() {
	case DataTypeInteger:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q as INTEGER", ErrInvalidConstantValue, c.Key, c.Value)
		}
		return v, nil
	case DataTypeReal:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q as REAL", ErrInvalidConstantValue, c.Key, c.Value)
		}
		return v, nil
	case DataTypeBoolean:
		v, err := strconv.ParseBool(strings.ToLower(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q as BOOLEAN", ErrInvalidConstantValue, c.Key, c.Value)
		}
		return v, nil
	case DataTypeText:
		return c.Value, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidDataType, c.DataType)
	}
}
