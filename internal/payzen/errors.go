package payzen

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSignatureMismatch is returned when an inbound callback's signature does
// not match the one recomputed with the acquirer's certificate. It is an
// authentication failure, distinct from malformed-data errors, so callers can
// tell forged or corrupted payloads apart from bad requests.
var ErrSignatureMismatch = errors.New("payzen: signatures mismatch")

// ErrUnknownCurrency is returned when an ISO alpha-3 currency code has no
// numeric gateway code. Unknown currencies fail the request rather than
// defaulting silently.
var ErrUnknownCurrency = errors.New("payzen: unknown currency code")

// LookupError reports that a callback reference matched zero or more than one
// transaction. Both cases indicate data corruption or a forged order id and
// are fatal for the request.
type LookupError struct {
	Reference string
	Matches   int
}

func (e *LookupError) Error() string {
	if e.Matches == 0 {
		return fmt.Sprintf("payzen: received bad data for reference %s; no payment transaction found", e.Reference)
	}
	return fmt.Sprintf("payzen: received bad data for reference %s; %d payment transactions found", e.Reference, e.Matches)
}

// FieldMismatch records one cross-checked callback field that disagrees with
// the stored transaction.
type FieldMismatch struct {
	Field    string
	Received string
	Expected string
}

func (m FieldMismatch) String() string {
	return fmt.Sprintf("%s: received %q, expected %q", m.Field, m.Received, m.Expected)
}

// ValidationMismatchError carries the exhaustive list of invariant violations
// found while cross-checking a callback against the stored transaction. A
// non-empty list blocks the state transition; the full list is kept for fraud
// investigation.
type ValidationMismatchError struct {
	Reference  string
	Mismatches []FieldMismatch
}

func (e *ValidationMismatchError) Error() string {
	parts := make([]string, 0, len(e.Mismatches))
	for _, m := range e.Mismatches {
		parts = append(parts, m.String())
	}
	return fmt.Sprintf("payzen: invalid parameters for reference %s: %s", e.Reference, strings.Join(parts, "; "))
}
