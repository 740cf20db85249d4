package ledger

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is to test for them; the concrete errors below
// carry the sheet, row and record context.
var (
	ErrStructural      = errors.New("structural mismatch")
	ErrNoSections      = errors.New("no sections found")
	ErrSectionNotFound = errors.New("section not found")
	ErrTooLarge        = errors.New("row limit exceeded")
	ErrInvalidRecord   = errors.New("invalid record")
)

// StructuralError reports a workbook that does not have the expected shape.
type StructuralError struct {
	Sheet  string
	Reason string
}

func (e *StructuralError) Error() string {
	if e.Sheet == "" {
		return fmt.Sprintf("%s: %s", ErrStructural, e.Reason)
	}
	return fmt.Sprintf("%s: sheet %q: %s", ErrStructural, e.Sheet, e.Reason)
}

func (e *StructuralError) Unwrap() error { return ErrStructural }

// RecordError reports a batch record the writer refuses to merge.
type RecordError struct {
	// Index is the 0-based position in the batch.
	Index       int
	DisplayName string
	Reason      string
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s: record %d (%s): %s", ErrInvalidRecord, e.Index+1, e.DisplayName, e.Reason)
}

func (e *RecordError) Unwrap() error { return ErrInvalidRecord }
