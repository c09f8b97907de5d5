// Package repository defines sentinel errors reused across the data
// access layer.  Handlers use them to pick the matching HTTP status:
// ErrForbidden maps to 403, ErrConflict to 409, and the duplicate
// sentinels to 400 per the API contract.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because of
// the resource's current state, such as pledging on a closed request or
// an illegal pledge status transition.
var ErrConflict = errors.New("conflict")

// ErrUsernameExists signals a registration with a taken username.
var ErrUsernameExists = errors.New("username already exists")

// ErrEmailExists signals a registration with a taken email.
var ErrEmailExists = errors.New("email already exists")

// ErrDuplicateTitle signals that a buyer already has a bulk request
// with the same title (exact, case-sensitive match).
var ErrDuplicateTitle = errors.New("bulk request title already exists for this buyer")

// ErrDuplicateName signals that a seller already has a product with the
// same name (exact, case-sensitive match).
var ErrDuplicateName = errors.New("product name already exists for this seller")
