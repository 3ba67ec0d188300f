package model

// Event is a notification produced by a successful state transition.
//
// The set of events is closed: DepositRecorded and ClaimAuthorized.
type Event interface {
	EventName() string
	isEvent()
}

const (
	EventDepositRecorded = "Deposit"
	EventClaimAuthorized = "ClaimAuthorized"
)

// DepositRecorded is emitted after a deposit record was written.
type DepositRecorded struct {
	Caller   AccountID
	ClientID ClientID
	Amount   Amount
}

func (DepositRecorded) EventName() string { return EventDepositRecorded }
func (DepositRecorded) isEvent()          {}

// ClaimAuthorized is emitted after a reward claim passed the signature gate.
type ClaimAuthorized struct {
	Caller AccountID
}

func (ClaimAuthorized) EventName() string { return EventClaimAuthorized }
func (ClaimAuthorized) isEvent()          {}
