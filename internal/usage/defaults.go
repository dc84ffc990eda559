package usage

import "time"

const (
	defaultLimit  = 100
	creditsPeriod = 24 * time.Hour
)

func defaultUsage() Usage {
	return Usage{
		Used:     0,
		Limit:    defaultLimit,
		ResetsAt: time.Now().UTC().Add(creditsPeriod),
	}
}
