package recovery

import "errors"

var (
	// ErrUnauthorized indicates the initiator is not the pool authority.
	ErrUnauthorized = errors.New("recovery: initiator is not the pool authority")

	// ErrAmountExceedsCustody indicates the requested amount is zero or
	// above the custody balance.
	ErrAmountExceedsCustody = errors.New("recovery: amount exceeds custody balance")

	// ErrEmptyReason indicates no reason code was supplied. Every recovery
	// must be auditable.
	ErrEmptyReason = errors.New("recovery: reason code is required")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("recovery: required parameter is nil")
)
