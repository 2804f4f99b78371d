package order

// Status is the order payment status.
type Status string

const (
	StatusCreated         Status = "CREATED"
	StatusAwaitingPayment Status = "AWAITING_PAYMENT"
	StatusPaid            Status = "PAID"
	StatusFailed          Status = "FAILED"
	StatusCancelled       Status = "CANCELLED"
	StatusRefunded        Status = "REFUNDED"
)

// validNext encodes the automatic transition rules. REFUNDED is reachable
// only from PAID; no automatic trigger exists for it yet, the operator
// escape hatch is the only writer.
var validNext = map[Status]map[Status]bool{
	StatusCreated:         {StatusAwaitingPayment: true},
	StatusAwaitingPayment: {StatusPaid: true, StatusFailed: true, StatusCancelled: true},
	StatusPaid:            {StatusRefunded: true},
	StatusFailed:          {},
	StatusCancelled:       {},
	StatusRefunded:        {},
}

// CanTransition reports whether from -> to is a legal automatic transition.
// Operator overrides bypass this check deliberately.
func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// Terminal reports whether the status admits no further automatic
// transitions away from a settled payment.
func (s Status) Terminal() bool {
	return s == StatusPaid || s == StatusRefunded
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusCreated, StatusAwaitingPayment, StatusPaid, StatusFailed, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}
