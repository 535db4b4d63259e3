package domain

// Error taxonomy for the allocation core. Every failure an operation can
// report maps to one of these four types; the HTTP layer matches them with
// errors.As and turns them into 400/404 responses. Anything else is a 500.

// ValidationError missing/malformed input or a violated business rule
// (bad date ordering, same-room move, camera non agibile).
type ValidationError struct {
	Reason   string
	Required []string
}

func (e *ValidationError) Error() string { return e.Reason }

// NewValidationError reports a generic invalid-input failure.
func NewValidationError(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

// NewMissingFieldsError reports required request fields that were absent.
func NewMissingFieldsError(fields ...string) *ValidationError {
	return &ValidationError{Reason: "Campi obbligatori mancanti", Required: fields}
}

// NotFoundError unknown alloggiato/camera/assegnazione/storico id.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{Message: message}
}

// ConflictError a state conflict: duplicate active assignment or an
// assignment already closed. ExistingAssignmentID is set only for the
// duplicate-assignment case.
type ConflictError struct {
	Reason               string
	ExistingAssignmentID int
}

func (e *ConflictError) Error() string { return e.Reason }

// CapacityError room full: active assignments already equal NrPosti.
// The wire message stays generic; the counts travel as separate fields.
type CapacityError struct {
	NumeroCamera  string
	PostiTotali   int
	PostiOccupati int
}

func (e *CapacityError) Error() string {
	return "Camera completa: non ci sono posti disponibili"
}
