package domain

import "time"

// SweepOutcome is what happened to one user during a sweep
type SweepOutcome string

const (
	OutcomeNotDue         SweepOutcome = "not_due"
	OutcomePaused         SweepOutcome = "paused"
	OutcomeCheckedIn      SweepOutcome = "checked_in"
	OutcomeAlreadyAlerted SweepOutcome = "already_alerted"
	OutcomeLocked         SweepOutcome = "locked"
	OutcomeNoContacts     SweepOutcome = "no_contacts"
	OutcomeAlerted        SweepOutcome = "alerted"
	OutcomeNotifyFailed   SweepOutcome = "notify_failed"
	OutcomeError          SweepOutcome = "error"
)

type UserError struct {
	UserID string
	Err    error
}

type SweepResult struct {
	AsOf       time.Time
	Processed  int
	AlertsSent int
	Outcomes   map[SweepOutcome]int
	Errors     []UserError
}

func NewSweepResult(asOf time.Time) SweepResult {
	return SweepResult{
		AsOf:     asOf,
		Outcomes: make(map[SweepOutcome]int),
		Errors:   []UserError{},
	}
}

// Record adds the outcome of one user to the result. err may be nil.
func (r *SweepResult) Record(userID string, outcome SweepOutcome, err error) {
	r.Processed++
	r.Outcomes[outcome]++
	if outcome == OutcomeAlerted {
		r.AlertsSent++
	}
	if err != nil {
		r.Errors = append(r.Errors, UserError{UserID: userID, Err: err})
	}
}
