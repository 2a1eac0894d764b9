package statuses

const (
	StatusWaitOpponent = "wait_opponent"
	StatusActive       = "active"
	StatusCompleted    = "completed"
)
