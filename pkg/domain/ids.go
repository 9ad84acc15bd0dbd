package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "lostfound/pkg/domain-errors"
)

// RecordID identifies a lost-item record. It is opaque to callers; the view
// endpoint accepts it as a path parameter.
type RecordID uuid.UUID

// NewRecordID returns a fresh random record ID.
func NewRecordID() RecordID {
	return RecordID(uuid.New())
}

// ParseRecordID constructs a RecordID from external input.
//
// Errors: returns CodeBadRequest when the value is empty, malformed, or the nil UUID.
func ParseRecordID(s string) (RecordID, error) {
	if strings.TrimSpace(s) == "" {
		return RecordID{}, dErrors.New(dErrors.CodeBadRequest, "record id is required")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return RecordID{}, dErrors.New(dErrors.CodeBadRequest, "invalid record id")
	}
	id := RecordID(parsed)
	if id.IsNil() {
		return RecordID{}, dErrors.New(dErrors.CodeBadRequest, "invalid record id")
	}
	return id, nil
}

func (id RecordID) String() string {
	return uuid.UUID(id).String()
}

// IsNil reports whether the ID is the zero value.
func (id RecordID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}
