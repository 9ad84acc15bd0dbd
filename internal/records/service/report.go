package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"lostfound/internal/normalize"
	"lostfound/internal/records/models"
	"lostfound/internal/records/store"
	statsmodels "lostfound/internal/stats/models"
	"lostfound/pkg/domain"
	dErrors "lostfound/pkg/domain-errors"
	"lostfound/pkg/platform/sentinel"
	"lostfound/pkg/requestcontext"
)

// ReportFound registers a found item, merging it into an existing unclaimed
// record when the report duplicates one.
//
// Unique-key categories refresh doc_location when the same finder re-reports
// an unclaimed document, and conflict when anyone else holds the number. The
// refresh writes doc_location only: other identity fields in the resubmission,
// such as a different last_name, are ignored and the stored values are kept.
// Other categories match on the full identity, classification and location
// tuple: same contact updates doc_location, same doc_location updates the
// contact, anything else creates a new record.
func (s *Service) ReportFound(ctx context.Context, category models.Category, report models.Report) (*models.ReportResult, error) {
	start := time.Now()
	defer s.metrics.ObserveLatency("report_found", start)

	ctx, span := s.tracer.Start(ctx, "records.ReportFound")
	defer span.End()
	span.SetAttributes(attribute.String("category", string(category)))

	desc, err := descriptor(category)
	if err != nil {
		return nil, err
	}
	prep, err := s.prepareFields(desc, report.Fields, modeReport)
	if err != nil {
		return nil, err
	}
	docLocation, err := prepareDocLocation(report.DocLocation)
	if err != nil {
		return nil, err
	}
	contact, err := s.prepareContact(report.FinderContact)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var (
		outcome models.Outcome
		rec     *models.Record
	)
	if desc.HasUniqueKey() {
		outcome, rec, err = s.reportUnique(ctx, desc, prep, docLocation, contact, now)
	} else {
		outcome, rec, err = s.reportComposite(ctx, desc, prep, docLocation, contact, now)
	}
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			s.metrics.IncrementOutcome(string(category), string(models.OutcomeConflict))
			span.SetAttributes(attribute.String("outcome", string(models.OutcomeConflict)))
		} else {
			span.SetStatus(codes.Error, err.Error())
		}
		return nil, err
	}

	s.metrics.IncrementOutcome(string(category), string(outcome))
	span.SetAttributes(attribute.String("outcome", string(outcome)))
	if outcome == models.OutcomeCreated {
		s.increment(ctx, statsmodels.TotalDocuments)
	}
	s.logger.InfoContext(ctx, "found report resolved",
		"request_id", requestcontext.RequestID(ctx),
		"category", category,
		"outcome", outcome,
		"record_id", rec.ID,
	)
	return &models.ReportResult{Outcome: outcome, Record: rec.View()}, nil
}

func (s *Service) reportUnique(ctx context.Context, desc models.Descriptor, prep *prepared, docLocation, contact string, now time.Time) (models.Outcome, *models.Record, error) {
	keyField, _ := desc.UniqueKeyField()
	byKey := store.Filter{Category: desc.Category, UniqueKey: prep.uniqueKey}

	// An insert that loses the uniqueness race re-runs the refresh once.
	for attempt := 0; attempt < 2; attempt++ {
		refresh := byKey
		refresh.FinderContact = contact
		rec, err := s.store.ConditionalUpdate(ctx, refresh.Unclaimed(), store.Update{DocLocation: &docLocation, At: now})
		if err == nil {
			return models.OutcomeMergedLocationUpdated, rec, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return "", nil, s.storeUnavailable(ctx, "refresh_location", err)
		}

		_, err = s.store.FindOne(ctx, byKey)
		if err == nil {
			return "", nil, dErrors.Newf(dErrors.CodeConflict, "a %s record with this %s already exists.", desc.Category, keyField.Name)
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return "", nil, s.storeUnavailable(ctx, "find_by_key", err)
		}

		rec = newRecord(desc, prep, docLocation, contact, now)
		err = s.store.Insert(ctx, rec)
		if err == nil {
			return models.OutcomeCreated, rec, nil
		}
		if !errors.Is(err, sentinel.ErrAlreadyUsed) {
			return "", nil, s.storeUnavailable(ctx, "insert", err)
		}
	}
	return "", nil, dErrors.Newf(dErrors.CodeConflict, "a %s record with this %s already exists.", desc.Category, keyField.Name)
}

func (s *Service) reportComposite(ctx context.Context, desc models.Descriptor, prep *prepared, docLocation, contact string, now time.Time) (models.Outcome, *models.Record, error) {
	tuple := store.Filter{Category: desc.Category, Fields: prep.fields}.Unclaimed()
	existing, err := s.store.FindOne(ctx, tuple)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return "", nil, s.storeUnavailable(ctx, "find_duplicate", err)
	}

	if existing != nil {
		target := store.Filter{Category: desc.Category, ID: existing.ID}.Unclaimed()
		var (
			update  store.Update
			outcome models.Outcome
		)
		switch {
		case existing.FinderContact == contact:
			update = store.Update{DocLocation: &docLocation, At: now}
			outcome = models.OutcomeMergedLocationUpdated
		case normalize.Equal(existing.DocLocation, docLocation):
			update = store.Update{FinderContact: &contact, At: now}
			outcome = models.OutcomeMergedContactUpdated
		}
		if outcome != "" {
			rec, err := s.store.ConditionalUpdate(ctx, target, update)
			if err == nil {
				return outcome, rec, nil
			}
			// Claimed between find and update: fall through to create.
			if !errors.Is(err, sentinel.ErrNotFound) {
				return "", nil, s.storeUnavailable(ctx, "merge", err)
			}
		}
	}

	rec := newRecord(desc, prep, docLocation, contact, now)
	if err := s.store.Insert(ctx, rec); err != nil {
		return "", nil, s.storeUnavailable(ctx, "insert", err)
	}
	return models.OutcomeCreated, rec, nil
}

func newRecord(desc models.Descriptor, prep *prepared, docLocation, contact string, now time.Time) *models.Record {
	return &models.Record{
		ID:            domain.NewRecordID().String(),
		Category:      desc.Category,
		Fields:        prep.fields,
		UniqueKey:     prep.uniqueKey,
		DocLocation:   docLocation,
		FinderContact: contact,
		Status:        desc.InitialStatus,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
