package models

import "time"

// Status is the polarity of a record. Claimed records are always found.
type Status string

const (
	StatusLost  Status = "lost"
	StatusFound Status = "found"
)

// Outcome reports how ReportFound resolved an incoming report.
type Outcome string

const (
	OutcomeCreated               Outcome = "created"
	OutcomeMergedLocationUpdated Outcome = "merged_location_updated"
	OutcomeMergedContactUpdated  Outcome = "merged_contact_updated"
	OutcomeConflict              Outcome = "conflict"
)

// Record is the single stored shape shared by every category.
type Record struct {
	ID            string            `bson:"_id"`
	Category      Category          `bson:"category"`
	Fields        map[string]string `bson:"fields"`
	UniqueKey     string            `bson:"unique_key,omitempty"`
	DocLocation   string            `bson:"doc_location"`
	FinderContact string            `bson:"finder_contact"`
	Status        Status            `bson:"status"`
	Claimed       bool              `bson:"claimed"`
	ClaimedAt     *time.Time        `bson:"claimed_at,omitempty"`
	ExpireAt      *time.Time        `bson:"expire_at,omitempty"`
	CreatedAt     time.Time         `bson:"created_at"`
	UpdatedAt     time.Time         `bson:"updated_at"`
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.Fields = make(map[string]string, len(r.Fields))
	for k, v := range r.Fields {
		c.Fields[k] = v
	}
	if r.ClaimedAt != nil {
		t := *r.ClaimedAt
		c.ClaimedAt = &t
	}
	if r.ExpireAt != nil {
		t := *r.ExpireAt
		c.ExpireAt = &t
	}
	return &c
}

// ExpiredAt reports whether a claimed record's grace window has elapsed.
func (r *Record) ExpiredAt(now time.Time) bool {
	return r.Claimed && r.ExpireAt != nil && !now.Before(*r.ExpireAt)
}

// RecordView is the response projection of a record.
type RecordView struct {
	ID            string            `json:"id"`
	Category      Category          `json:"category"`
	Status        Status            `json:"status"`
	Claimed       bool              `json:"claimed"`
	ClaimedAt     *time.Time        `json:"claimed_at,omitempty"`
	DocLocation   string            `json:"doc_location,omitempty"`
	FinderContact string            `json:"finder_contact,omitempty"`
	Fields        map[string]string `json:"fields"`
	CreatedAt     time.Time         `json:"created_at"`
}

// View projects the record for an owner who has claimed or may claim it.
func (r *Record) View() *RecordView {
	c := r.Clone()
	return &RecordView{
		ID:            c.ID,
		Category:      c.Category,
		Status:        c.Status,
		Claimed:       c.Claimed,
		ClaimedAt:     c.ClaimedAt,
		DocLocation:   c.DocLocation,
		FinderContact: c.FinderContact,
		Fields:        c.Fields,
		CreatedAt:     c.CreatedAt,
	}
}

// Teaser projects the record for search results: enough to recognise the
// item, but not where it is or who holds it.
func (r *Record) Teaser() RecordView {
	v := r.View()
	v.DocLocation = ""
	v.FinderContact = ""
	return *v
}

// ReportResult is returned by ReportFound.
type ReportResult struct {
	Outcome Outcome     `json:"outcome"`
	Record  *RecordView `json:"record"`
}

// Report is an incoming "found" submission.
type Report struct {
	Fields        map[string]string
	DocLocation   string
	FinderContact string
}
