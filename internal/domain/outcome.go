package domain

import "time"

type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
)

// Outcome is the result of one probe invocation: either Passed with the
// measured duration or Failed with a message. Build one with Passed or Failed.
type Outcome struct {
	Status   Status        `json:"status"`
	Duration time.Duration `json:"duration_ns"`
	Message  string        `json:"message,omitempty"`
}

func Passed(d time.Duration) Outcome {
	return Outcome{Status: StatusPassed, Duration: d}
}

// Failed keeps the elapsed time too; the text report only prints the message.
func Failed(msg string, d time.Duration) Outcome {
	return Outcome{Status: StatusFailed, Message: msg, Duration: d}
}

func (o Outcome) OK() bool { return o.Status == StatusPassed }
