package shared

// DomainError represents a domain-level error with a stable machine code.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code, so
// errors.Is matches freshly constructed errors against the sentinels
// below even across wrapping.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors. ErrConflict is the only retryable one: callers
// re-read the aggregate and retry a bounded number of times before
// surfacing it. Everything else aborts the enclosing transaction as-is.
var (
	ErrNotFound              = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists         = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput          = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConflict              = NewDomainError("STOCK_VERSION_CONFLICT", "Record was modified by another process")
	ErrInvalidState          = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInvalidTransition     = NewDomainError("INVALID_TRANSITION", "Workflow action not valid from current state")
	ErrInsufficientStock     = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock on hand")
	ErrInsufficientAvailable = NewDomainError("INSUFFICIENT_AVAILABLE", "Insufficient unreserved stock available")
	ErrConstraintViolation   = NewDomainError("CONSTRAINT_VIOLATION", "Domain constraint violated")
	ErrMissingIngredientCost = NewDomainError("MISSING_INGREDIENT_COST", "No cost could be resolved for a recipe ingredient")
)
