package types

import "errors"

// Lookup and storage errors. Storage errors returned by the sqlite package
// wrap both one of these sentinels and the driver error that caused it.
var (
	ErrNotFound           = errors.New("entity not found")
	ErrConstraint         = errors.New("constraint violation")
	ErrDuplicate          = errors.New("duplicate key")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrStoreClosed        = errors.New("store is closed")
)

// JSON field errors.
var (
	ErrInvalidJSON = errors.New("invalid JSON field")
	ErrDecode      = errors.New("decoding JSON field")
)

// Entity validation errors.
var (
	ErrInvalidID               = errors.New("invalid entity ID")
	ErrInvalidWorldID          = errors.New("invalid world ID")
	ErrInvalidName             = errors.New("invalid name")
	ErrInvalidKey              = errors.New("invalid constant key")
	ErrInvalidDataType         = errors.New("invalid constant data type")
	ErrInvalidConstantValue    = errors.New("constant value does not match its data type")
	ErrInvalidCharacterType    = errors.New("invalid character type")
	ErrInvalidRelationshipType = errors.New("invalid relationship type")
	ErrInvalidVehicleType      = errors.New("invalid vehicle type")
	ErrSelfRelationship        = errors.New("relationship endpoints must differ")
	ErrCrossWorld              = errors.New("entities belong to different worlds")
	ErrInvalidAmount           = errors.New("amount must not be negative")
	ErrInvalidQuantity         = errors.New("quantity must be positive")
	ErrInvalidCondition        = errors.New("condition must be within 0 and 100")
	ErrInvalidCapacity         = errors.New("capacity must be positive")
	ErrUniqueItemInstantiated  = errors.New("unique item already has an instance")
	ErrInstanceHeld            = errors.New("item instance is already held")
)

// Manager errors.
var (
	ErrSnapshotsDisabled = errors.New("snapshot archive is not configured")
)
