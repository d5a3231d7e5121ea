package domain

// Market selects which Binance kline endpoint is used.
type Market string

const (
	MarketSpot    Market = "spot"
	MarketFutures Market = "futures" // USD-M perpetual futures
)

// RunStatus represents the lifecycle state of a download run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// DateLayout is the calendar date format accepted for start and end dates.
const DateLayout = "2006-01-02"
