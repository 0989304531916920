package orders

type Status string

const (
	StatusOrder  Status = "ORDER"
	StatusCancel Status = "CANCEL"
)

var validNext = map[Status]map[Status]bool{
	StatusOrder:  {StatusCancel: true},
	StatusCancel: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}
