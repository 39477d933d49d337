package framework

import "fmt"

// Status is the outcome of a run, used as the process exit code.
type Status int

const (
	StatusSuccess       Status = 0
	StatusFailure       Status = 1
	StatusConfigError   Status = 2
	StatusUserInterrupt Status = 130
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	case StatusConfigError:
		return "configuration error"
	case StatusUserInterrupt:
		return "interrupted"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}
