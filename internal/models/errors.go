package models

import "errors"

// Domain errors that can be returned by repositories
var (
	// ErrNotFound indicates the requested entity was not found
	ErrNotFound = errors.New("not found")

	// ErrDuplicateEmail indicates an account with the same email already exists
	ErrDuplicateEmail = errors.New("duplicate email")

	// ErrInsufficientFunds indicates a delta would drive a balance below zero
	ErrInsufficientFunds = errors.New("insufficient funds")
)
