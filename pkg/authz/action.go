package authz

//go:generate go run github.com/dmarkham/enumer -type Action -trimprefix Action -transform lower -output action.gen.go

// Action is an operation a requester wants to perform on an owned record
type Action int

const (
	ActionRead Action = iota
	ActionWrite
	ActionDelete
)

//go:generate go run github.com/dmarkham/enumer -type Decision -trimprefix Decision -transform lower -output decision.gen.go

// Decision is the outcome of an ownership check. The zero value denies.
type Decision int

const (
	DecisionDeny Decision = iota
	DecisionAllow
)

// Allowed reports whether d is DecisionAllow
func (d Decision) Allowed() bool {
	return d == DecisionAllow
}
