package transfer

import "golang.org/x/text/cases"

// Caller is the identity acting on a transfer. The zero value is anonymous.
type Caller struct {
	AccountID int64
	Email     string
}

func (c Caller) Authenticated() bool {
	return c.AccountID != 0
}

// Permits reports whether caller may accept or decline the transfer.
func Permits(rec Record, caller Caller) bool {
	return rec.Status == StatusAwaitingTransfer && MatchesDestination(rec.Destination, caller)
}

// MatchesDestination reports whether caller is the destination. A resolved
// destination matches on account id only; an unresolved one matches the
// caller's email without regard to case.
func MatchesDestination(dest Destination, caller Caller) bool {
	if !caller.Authenticated() {
		return false
	}

	switch d := dest.(type) {
	case ResolvedAccount:
		return d.AccountID == caller.AccountID
	case UnresolvedEmail:
		return caller.Email != "" && sameEmail(d.Email, caller.Email)
	default:
		return false
	}
}

func sameEmail(a, b string) bool {
	fold := cases.Fold()

	return fold.String(a) == fold.String(b)
}
