package domain

type OrderStatus string

const (
	StatusPending    OrderStatus = "PENDING"
	StatusProcessing OrderStatus = "PROCESSING"
	StatusDone       OrderStatus = "DONE"
)

// successors is the whole lifecycle. A status that maps to "" is terminal.
var successors = map[OrderStatus]OrderStatus{
	StatusPending:    StatusProcessing,
	StatusProcessing: StatusDone,
	StatusDone:       "",
}

// NextStatus returns the single successor of s. ok is false when s is terminal.
// An unknown status yields an *InvalidStateError.
func NextStatus(s OrderStatus) (next OrderStatus, ok bool, err error) {
	n, known := successors[s]
	if !known {
		return "", false, &InvalidStateError{Status: s}
	}
	if n == "" {
		return "", false, nil
	}
	return n, true, nil
}

func (s OrderStatus) Valid() bool {
	_, ok := successors[s]
	return ok
}

func (s OrderStatus) Terminal() bool {
	n, ok := successors[s]
	return ok && n == ""
}

// Unfinished lists every non-terminal status.
func Unfinished() []OrderStatus {
	return []OrderStatus{StatusPending, StatusProcessing}
}
