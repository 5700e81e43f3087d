// Package errors provides custom error types for the moneyflow API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import (
	stderrors "errors"
	"net/http"
)

// Kind classifies an AppError. Callers branch on the kind, clients render the code.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindRateLimited  Kind = "rate_limited"
	KindUnauthorized Kind = "unauthorized"
	KindUnavailable  Kind = "unavailable"
	KindInternal     Kind = "internal"
)

// AppError represents a structured application error with an error code,
// human-readable message, kind, HTTP status code and optional context.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Kind       Kind   `json:"kind"`
	Field      string `json:"field,omitempty"`
	ResourceID string `json:"resource_id,omitempty"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether target is an AppError with the same code, so that
// derived errors (WithMessage, Wrap, ...) still match their sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) clone() *AppError {
	c := *e
	return &c
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	e := sentinel.clone()
	e.Internal = internal
	return e
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	e := sentinel.clone()
	e.Message = message
	return e
}

// WithField creates a new AppError naming the offending input field.
func WithField(sentinel *AppError, field, message string) *AppError {
	e := sentinel.clone()
	e.Field = field
	if message != "" {
		e.Message = message
	}
	return e
}

// WithResource creates a new AppError naming the entity the error is about.
func WithResource(sentinel *AppError, resourceID string) *AppError {
	e := sentinel.clone()
	e.ResourceID = resourceID
	return e
}

// KindOf returns the kind of err, or KindInternal when err is not an AppError.
func KindOf(err error) Kind {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool { return err != nil && KindOf(err) == KindValidation }

// IsNotFound reports whether err refers to a missing entity.
func IsNotFound(err error) bool { return err != nil && KindOf(err) == KindNotFound }

// IsConflict reports whether err is a referential conflict.
func IsConflict(err error) bool { return err != nil && KindOf(err) == KindConflict }

func validation(code, message string) *AppError {
	return &AppError{Code: code, Message: message, Kind: KindValidation, StatusCode: http.StatusBadRequest}
}

func notFound(code, message string) *AppError {
	return &AppError{Code: code, Message: message, Kind: KindNotFound, StatusCode: http.StatusNotFound}
}

func conflict(code, message string) *AppError {
	return &AppError{Code: code, Message: message, Kind: KindConflict, StatusCode: http.StatusConflict}
}

// General errors.
var (
	ErrInvalidInput    = validation("INVALID_INPUT", "Invalid input")
	ErrNotFound        = notFound("NOT_FOUND", "Resource not found")
	ErrInternalServer  = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", Kind: KindInternal, StatusCode: http.StatusInternalServerError}
	ErrLedgerBusy      = &AppError{Code: "LEDGER_BUSY", Message: "The ledger is busy, please retry", Kind: KindUnavailable, StatusCode: http.StatusServiceUnavailable}
	ErrTooManyRequests = &AppError{Code: "TOO_MANY_REQUESTS", Message: "Too many requests, please try again later", Kind: KindRateLimited, StatusCode: http.StatusTooManyRequests}
)

// Admin errors.
var (
	ErrInvalidAPIKey      = &AppError{Code: "INVALID_API_KEY", Message: "Invalid or missing API key", Kind: KindUnauthorized, StatusCode: http.StatusUnauthorized}
	ErrAdminNotConfigured = &AppError{Code: "ADMIN_NOT_CONFIGURED", Message: "Admin endpoints are not configured", Kind: KindUnavailable, StatusCode: http.StatusServiceUnavailable}
)

// Amount errors.
var (
	ErrInvalidAmount      = validation("INVALID_AMOUNT", "Amount must be greater than zero")
	ErrAmountPrecision    = validation("AMOUNT_PRECISION", "Amount has more decimal places than the currency allows")
	ErrCurrencyMismatch   = validation("CURRENCY_MISMATCH", "Accounts use different currencies")
	ErrInvalidDateRange   = validation("INVALID_DATE_RANGE", "start_date must not be after end_date")
	ErrRangeTooLarge      = validation("RANGE_TOO_LARGE", "Requested range produces too many periods")
	ErrInvalidGranularity = validation("INVALID_GRANULARITY", "Unsupported trend granularity")
)

// Account errors.
var (
	ErrAccountNotFound        = notFound("ACCOUNT_NOT_FOUND", "Account not found")
	ErrInvalidAccountKind     = validation("INVALID_ACCOUNT_KIND", "Account kind must be bank, cash or credit")
	ErrCreditFieldsNotAllowed = validation("CREDIT_FIELDS_NOT_ALLOWED", "credit_limit and due_date apply to credit accounts only")
	ErrAccountHasTransactions = conflict("ACCOUNT_HAS_TRANSACTIONS", "Cannot delete account with existing transactions")
)

// Category errors.
var (
	ErrCategoryNotFound     = notFound("CATEGORY_NOT_FOUND", "Category not found")
	ErrInvalidCategoryType  = validation("INVALID_CATEGORY_TYPE", "Category type must be income or expense")
	ErrCategoryTypeMismatch = validation("CATEGORY_TYPE_MISMATCH", "Category type does not match transaction type")
	ErrCategoryInUse        = conflict("CATEGORY_IN_USE", "Category is used by existing transactions")
	ErrDuplicateCategory    = conflict("DUPLICATE_CATEGORY", "A category with this name and type already exists")
)

// Transaction errors.
var (
	ErrTransactionNotFound    = notFound("TRANSACTION_NOT_FOUND", "Transaction not found")
	ErrInvalidTransactionType = validation("INVALID_TRANSACTION_TYPE", "Transaction type must be income or expense")
	ErrInsufficientBalance    = validation("INSUFFICIENT_BALANCE", "Insufficient account balance")
	ErrCreditLimitExceeded    = validation("CREDIT_LIMIT_EXCEEDED", "Credit limit exceeded")
	ErrSameAccountTransfer    = validation("SAME_ACCOUNT_TRANSFER", "Cannot transfer to the same account")
	ErrTransactionNotEditable = validation("TRANSACTION_NOT_EDITABLE", "Transfers cannot be edited, delete and re-create them instead")
)
