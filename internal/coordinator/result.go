package coordinator

import "github.com/zjrosen/restock/internal/restock/domain"

// CommandResult is the outcome of a coordinator command. Commands never
// panic across this boundary: every failure mode, including remote
// outages, comes back as Success=false with a typed error.
//
// A failed command can still leave useful local state behind. Session
// carries the state the device now holds, and RetryPending reports
// whether a remote write is still owed for it.
type CommandResult struct {
	Success      bool
	Session      *domain.RestockSession
	Err          error
	RetryPending bool
}

func succeeded(session *domain.RestockSession) CommandResult {
	return CommandResult{Success: true, Session: session}
}

func failed(session *domain.RestockSession, err error, retryPending bool) CommandResult {
	return CommandResult{Success: false, Session: session, Err: err, RetryPending: retryPending}
}
