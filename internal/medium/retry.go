package medium

import "net/http"

// Outcome classifies a single HTTP attempt.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeRetryable
	OutcomeTerminal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetryable:
		return "retryable"
	default:
		return "terminal"
	}
}

// Action is what the call loop does after an attempt.
type Action int

const (
	ActionSucceed Action = iota
	ActionRetry
	ActionFail
)

// Classify maps a transport error or response status to an Outcome.
// Transport failures and 5xx responses are retryable; 2xx succeeds;
// everything else is terminal.
func Classify(status int, transportErr error) Outcome {
	switch {
	case transportErr != nil:
		return OutcomeRetryable
	case status >= http.StatusOK && status < http.StatusMultipleChoices:
		return OutcomeSuccess
	case status >= http.StatusInternalServerError:
		return OutcomeRetryable
	default:
		return OutcomeTerminal
	}
}

// Decide returns the next action after the given attempt (1-based) out of
// maxAttempts.
func Decide(status int, transportErr error, attempt, maxAttempts int) Action {
	switch Classify(status, transportErr) {
	case OutcomeSuccess:
		return ActionSucceed
	case OutcomeRetryable:
		if attempt < maxAttempts {
			return ActionRetry
		}
		return ActionFail
	default:
		return ActionFail
	}
}
