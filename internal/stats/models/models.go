package models

import "time"

// CounterName identifies one of the aggregate counters.
type CounterName string

const (
	TotalDocuments   CounterName = "totalDocuments"
	ClaimedDocuments CounterName = "claimedDocuments"
)

// Valid reports whether n names a known counter.
func (n CounterName) Valid() bool {
	return n == TotalDocuments || n == ClaimedDocuments
}

// Counters is the singleton stats row. Values only grow.
type Counters struct {
	TotalDocuments   int64 `json:"totalDocuments" bson:"total_documents"`
	ClaimedDocuments int64 `json:"claimedDocuments" bson:"claimed_documents"`
}

// Add applies delta to the named counter.
func (c *Counters) Add(name CounterName, delta int64) {
	switch name {
	case TotalDocuments:
		c.TotalDocuments += delta
	case ClaimedDocuments:
		c.ClaimedDocuments += delta
	}
}

// Event is one increment carried over the stats topic.
type Event struct {
	ID      string      `json:"id"`
	Counter CounterName `json:"counter"`
	Delta   int64       `json:"delta"`
	At      time.Time   `json:"at"`
}
