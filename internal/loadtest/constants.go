package loadtest

// HTTP status code constants.
const (
	StatusOK       = 200
	StatusConflict = 409
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Generation constants.
const (
	maxScore          = 1000
	lockCheckFraction = 10
)
