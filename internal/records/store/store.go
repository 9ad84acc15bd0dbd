// Package store persists lost-and-found records. Every backend offers the same
// contract: insert, find, and a conditional single-document update that is the
// only mutual exclusion the engine relies on.
package store

import (
	"time"

	"lostfound/internal/records/models"
)

// Filter selects records. Zero-valued members do not constrain the match.
type Filter struct {
	Category      models.Category
	ID            string
	Fields        map[string]string
	UniqueKey     string
	FinderContact string
	Claimed       *bool
}

// Unclaimed returns a copy of f restricted to unclaimed records.
func (f Filter) Unclaimed() Filter {
	claimed := false
	f.Claimed = &claimed
	return f
}

// AnyClaimState returns a copy of f that ignores the claimed flag.
func (f Filter) AnyClaimState() Filter {
	f.Claimed = nil
	return f
}

// Matches reports whether r satisfies every constraint in f.
func (f Filter) Matches(r *models.Record) bool {
	if f.Category != "" && r.Category != f.Category {
		return false
	}
	if f.ID != "" && r.ID != f.ID {
		return false
	}
	if f.UniqueKey != "" && r.UniqueKey != f.UniqueKey {
		return false
	}
	if f.FinderContact != "" && r.FinderContact != f.FinderContact {
		return false
	}
	if f.Claimed != nil && r.Claimed != *f.Claimed {
		return false
	}
	for k, v := range f.Fields {
		if r.Fields[k] != v {
			return false
		}
	}
	return true
}

// ClaimMark transitions a record to found(claimed).
type ClaimMark struct {
	At       time.Time
	ExpireAt time.Time
}

// Update describes the fields a conditional update sets. Nil members are left
// untouched. At becomes the record's UpdatedAt.
type Update struct {
	DocLocation   *string
	FinderContact *string
	Claim         *ClaimMark
	At            time.Time
}

// Apply mutates r in place.
func (u Update) Apply(r *models.Record) {
	if u.DocLocation != nil {
		r.DocLocation = *u.DocLocation
	}
	if u.FinderContact != nil {
		r.FinderContact = *u.FinderContact
	}
	if u.Claim != nil {
		at, expire := u.Claim.At, u.Claim.ExpireAt
		r.Claimed = true
		r.ClaimedAt = &at
		r.ExpireAt = &expire
		r.Status = models.StatusFound
	}
	r.UpdatedAt = u.At
}
