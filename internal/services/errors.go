package services

import "errors"

// State-conflict conditions callers must branch on. Validation failures are
// reported through the response envelopes at the handler boundary; these are
// the conditions that depend on ledger or review state.
var (
	// ErrAlreadyApplied means the idempotency key was applied before. The
	// reconciliation path treats this as success: the effect already exists.
	ErrAlreadyApplied = errors.New("ledger effect already applied")

	// ErrInsufficientFunds means a debit or reservation would exceed the
	// collection's available balance.
	ErrInsufficientFunds = errors.New("insufficient available funds")

	// ErrKycNotApproved gates withdrawal requests on identity verification.
	ErrKycNotApproved = errors.New("kyc not approved")

	// ErrNotOrganizer rejects collection operations from anyone other than
	// the collection's organizer.
	ErrNotOrganizer = errors.New("only the collection organizer can perform this action")

	// ErrCollectionFrozen marks a collection whose mutation path was halted
	// after an invariant breach was detected.
	ErrCollectionFrozen = errors.New("collection is frozen")

	ErrInvalidAmount      = errors.New("invalid amount")
	ErrCollectionNotFound = errors.New("collection not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrNotAcceptingFunds  = errors.New("collection is not accepting donations")
)
