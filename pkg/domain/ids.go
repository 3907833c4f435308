package domain

import (
	"strconv"
	"strings"

	dErrors "customerapi/pkg/domain-errors"
)

// maxIDDigits bounds the digits of an identifier; int64 never needs more.
const maxIDDigits = 19

// CustomerID is the store-assigned synthetic identifier of a customer.
// The zero value means "not yet persisted".
type CustomerID int64

// ParseCustomerID parses a path or query value into a CustomerID.
// Any plain decimal int64 is accepted, including zero and negatives, which no
// store ever assigns and so are simply absent.
func ParseCustomerID(s string) (CustomerID, error) {
	if s == "" {
		return 0, dErrors.New(dErrors.CodeBadRequest, "customer id is required")
	}
	digits := strings.TrimPrefix(s, "-")
	if digits == "" || len(digits) > maxIDDigits || strings.TrimLeft(digits, "0123456789") != "" {
		return 0, dErrors.New(dErrors.CodeBadRequest, "customer id must be an integer")
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, "customer id must be an integer")
	}
	return CustomerID(n), nil
}

// Assignable reports whether a store could have issued the id.
func (id CustomerID) Assignable() bool {
	return id > 0
}

// String returns the decimal form of the id.
func (id CustomerID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// IsNil reports whether the id has not been assigned.
func (id CustomerID) IsNil() bool {
	return id == 0
}
