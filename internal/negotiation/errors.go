package negotiation

import "errors"

var (
	// ErrInvalidState is returned when the negotiation status forbids the operation.
	ErrInvalidState = errors.New("negotiation: invalid state")
	// ErrInvalidAmount is returned for non-finite or non-positive prices and quantities.
	ErrInvalidAmount = errors.New("negotiation: invalid amount")
	ErrInvalidInput  = errors.New("negotiation: invalid input")
	// ErrForbidden is returned when the actor is neither the buyer nor the farmer.
	ErrForbidden = errors.New("negotiation: actor is not a participant")
	ErrNotFound  = errors.New("negotiation: not found")
	// ErrConflict is reported by the store when a concurrent write won the race.
	ErrConflict = errors.New("negotiation: conflicting update")
	// ErrNetworkFailure marks store or bus calls that did not complete.
	ErrNetworkFailure  = errors.New("negotiation: network failure")
	ErrCheckoutExpired = errors.New("negotiation: checkout window expired")
)

// Wire codes carried in the "code" field of error responses.
const (
	CodeInvalidState    = "invalid_state"
	CodeInvalidAmount   = "invalid_amount"
	CodeInvalidInput    = "invalid_input"
	CodeForbidden       = "forbidden"
	CodeNotFound        = "not_found"
	CodeConflict        = "conflict"
	CodeCheckoutExpired = "checkout_expired"
	CodeInternal        = "internal"
)

var codes = []struct {
	err  error
	code string
}{
	{ErrInvalidState, CodeInvalidState},
	{ErrInvalidAmount, CodeInvalidAmount},
	{ErrInvalidInput, CodeInvalidInput},
	{ErrForbidden, CodeForbidden},
	{ErrNotFound, CodeNotFound},
	{ErrConflict, CodeConflict},
	{ErrCheckoutExpired, CodeCheckoutExpired},
}

// Code returns the wire code of err, or CodeInternal if err wraps no known sentinel.
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}

// FromCode maps a wire code back to its sentinel. Unknown codes yield nil.
func FromCode(code string) error {
	for _, c := range codes {
		if c.code == code {
			return c.err
		}
	}
	return nil
}
