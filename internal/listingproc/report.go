package listingproc

import "time"

// CycleReport summarizes one completed monitoring cycle. Reports are
// best-effort observability data published on the Reports channel; a full
// channel drops the report rather than stalling the pipeline.
type CycleReport struct {
	CycleID    string    // unique identifier for the cycle (UUIDv7)
	StartedAt  time.Time // when the cycle began
	FinishedAt time.Time // when the cycle completed

	TransactionsInspected int // transactions not previously in the ledger
	ListingsNotified      int // notifications successfully published

	// NotificationsByAddress maps each watched address to the number of
	// notifications published for it during this cycle.
	NotificationsByAddress map[string]int
}
