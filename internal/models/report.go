package models

import "time"

// CycleReport summarizes one repricing cycle for notifications and logs.
type CycleReport struct {
	RunID       string
	StartedAt   time.Time
	Duration    time.Duration
	TotalOffers int
	Repriced    int
	Escalated   int
	NoChange    int
	Errors      int
}
