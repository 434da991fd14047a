package adapter

import (
	"errors"
	"fmt"
)

// AdapterError is a host-reported illegal operation.
//
// Op names the contract call ("set_block", "use_item_on", ...). After an
// AdapterError the world state is presumed inconsistent.
type AdapterError struct {
	Op  string
	Err error
}

// NewAdapterError wraps err as the failure of op. A nil err yields nil.
// An err that already is an AdapterError is returned unchanged.
func NewAdapterError(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *AdapterError
	if errors.As(err, &ae) {
		return err
	}
	return &AdapterError{Op: op, Err: err}
}

// Error implements the error interface.
func (e *AdapterError) Error() string {
	return fmt.Sprintf("adapter %s: %v", e.Op, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// IsAdapterError returns true if err wraps an AdapterError.
// Uses errors.As to handle wrapped errors.
func IsAdapterError(err error) bool {
	var ae *AdapterError
	return errors.As(err, &ae)
}
