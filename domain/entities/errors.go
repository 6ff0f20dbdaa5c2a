package entities

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a vault error for callers and transport mapping
type ErrorKind string

const (
	// ErrorKindValidation marks caller mistakes rejected before any mutation
	ErrorKindValidation ErrorKind = "validation"
	// ErrorKindStateConflict marks operations rejected because of the record's lifecycle state
	ErrorKindStateConflict ErrorKind = "state_conflict"
	// ErrorKindResourceExhausted marks a shared resource shortfall (reward pool)
	ErrorKindResourceExhausted ErrorKind = "resource_exhausted"
	// ErrorKindCollaboratorFailure marks a failed external collaborator call that aborted the operation
	ErrorKindCollaboratorFailure ErrorKind = "collaborator_failure"
)

// Reason codes carried by VaultError for programmatic handling
const (
	ErrCodePlanNotFound      = "PLAN_NOT_FOUND"
	ErrCodePlanInactive      = "PLAN_INACTIVE"
	ErrCodeInvalidPlan       = "INVALID_PLAN"
	ErrCodeAmountOutOfRange  = "AMOUNT_OUT_OF_RANGE"
	ErrCodeInvalidAmount     = "INVALID_AMOUNT"
	ErrCodeInvalidOwner      = "INVALID_OWNER"
	ErrCodeMultiplierRange   = "MULTIPLIER_OUT_OF_RANGE"
	ErrCodeNotOwner          = "NOT_OWNER"
	ErrCodeDepositNotFound   = "DEPOSIT_NOT_FOUND"
	ErrCodeAlreadyWithdrawn  = "ALREADY_WITHDRAWN"
	ErrCodeNotMatured        = "NOT_MATURED"
	ErrCodePositionFinalized = "POSITION_ALREADY_FINALIZED"
	ErrCodePositionNotFound  = "POSITION_NOT_FOUND"
	ErrCodeRewardPoolShort   = "REWARD_POOL_EXHAUSTED"
	ErrCodeTransferFailed    = "TRANSFER_FAILED"
	ErrCodeInsufficientFunds = "INSUFFICIENT_FUNDS"
)

// VaultError is the engine's typed error. Kind drives control flow and
// transport status mapping, Code identifies the specific reason.
type VaultError struct {
	Kind    ErrorKind
	Code    string
	Message string
	cause   error
}

// Error implements the error interface
func (e *VaultError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/errors.As chains
func (e *VaultError) Unwrap() error {
	return e.cause
}

// Is matches two vault errors by code so sentinel comparisons work through wrapping
func (e *VaultError) Is(target error) bool {
	var ve *VaultError
	if errors.As(target, &ve) {
		return e.Code == ve.Code
	}
	return false
}

// IsValidation reports whether the error was a caller mistake
func (e *VaultError) IsValidation() bool {
	return e.Kind == ErrorKindValidation
}

// IsStateConflict reports whether the error was a lifecycle conflict
func (e *VaultError) IsStateConflict() bool {
	return e.Kind == ErrorKindStateConflict
}

// NewValidationError builds a validation-kind error with the given reason code
func NewValidationError(code, format string, args ...any) *VaultError {
	return &VaultError{Kind: ErrorKindValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewStateConflictError builds a state-conflict-kind error with the given reason code
func NewStateConflictError(code, format string, args ...any) *VaultError {
	return &VaultError{Kind: ErrorKindStateConflict, Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewCollaboratorError wraps a failed collaborator call. The caller-visible
// message stays generic while the cause is preserved for logging.
func NewCollaboratorError(code string, cause error) *VaultError {
	return &VaultError{
		Kind:    ErrorKindCollaboratorFailure,
		Code:    code,
		Message: "transfer failed",
		cause:   cause,
	}
}

// Sentinel errors for errors.Is checks. Messages are defaults; operations
// usually construct their own with context via the New* helpers.
var (
	ErrPlanNotFound      = &VaultError{Kind: ErrorKindValidation, Code: ErrCodePlanNotFound, Message: "savings plan not found"}
	ErrPlanInactive      = &VaultError{Kind: ErrorKindValidation, Code: ErrCodePlanInactive, Message: "savings plan is not active"}
	ErrAmountOutOfRange  = &VaultError{Kind: ErrorKindValidation, Code: ErrCodeAmountOutOfRange, Message: "amount outside plan limits"}
	ErrInvalidAmount     = &VaultError{Kind: ErrorKindValidation, Code: ErrCodeInvalidAmount, Message: "amount must be positive"}
	ErrMultiplierRange   = &VaultError{Kind: ErrorKindValidation, Code: ErrCodeMultiplierRange, Message: "multiplier outside [5000, 20000]"}
	ErrNotOwner          = &VaultError{Kind: ErrorKindValidation, Code: ErrCodeNotOwner, Message: "caller does not own this deposit"}
	ErrDepositNotFound   = &VaultError{Kind: ErrorKindValidation, Code: ErrCodeDepositNotFound, Message: "deposit not found"}
	ErrAlreadyWithdrawn  = &VaultError{Kind: ErrorKindStateConflict, Code: ErrCodeAlreadyWithdrawn, Message: "deposit already withdrawn"}
	ErrNotMatured        = &VaultError{Kind: ErrorKindStateConflict, Code: ErrCodeNotMatured, Message: "deposit has not matured"}
	ErrPositionFinalized = &VaultError{Kind: ErrorKindStateConflict, Code: ErrCodePositionFinalized, Message: "position already finalized"}
	ErrPositionNotFound  = &VaultError{Kind: ErrorKindValidation, Code: ErrCodePositionNotFound, Message: "yield position not found"}
	ErrRewardPoolShort   = &VaultError{Kind: ErrorKindResourceExhausted, Code: ErrCodeRewardPoolShort, Message: "reward pool cannot cover bonus"}
	ErrTransferFailed    = &VaultError{Kind: ErrorKindCollaboratorFailure, Code: ErrCodeTransferFailed, Message: "transfer failed"}
	ErrInsufficientFunds = &VaultError{Kind: ErrorKindCollaboratorFailure, Code: ErrCodeInsufficientFunds, Message: "insufficient funds"}
)
