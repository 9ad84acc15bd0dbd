package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"lostfound/internal/records/metrics"
	"lostfound/internal/records/models"
	"lostfound/internal/records/store"
	statsmodels "lostfound/internal/stats/models"
	"lostfound/pkg/domain"
	dErrors "lostfound/pkg/domain-errors"
	"lostfound/pkg/platform/sentinel"
	"lostfound/pkg/requestcontext"
)

// Claim finds a record by business key and claims it. A record already
// claimed by someone else is returned unchanged and not counted again.
func (s *Service) Claim(ctx context.Context, category models.Category, criteria map[string]string) (*models.RecordView, error) {
	start := time.Now()
	defer s.metrics.ObserveLatency("claim", start)

	ctx, span := s.tracer.Start(ctx, "records.Claim")
	defer span.End()
	span.SetAttributes(attribute.String("category", string(category)))

	desc, err := descriptor(category)
	if err != nil {
		return nil, err
	}
	prep, err := s.prepareFields(desc, criteria, modeClaim)
	if err != nil {
		return nil, err
	}

	filter := store.Filter{Category: desc.Category}
	if desc.HasUniqueKey() {
		filter.UniqueKey = prep.uniqueKey
	} else {
		filter.Fields = prep.fields
	}
	view, err := s.claim(ctx, desc, filter)
	if err != nil && !dErrors.HasCode(err, dErrors.CodeNotFound) {
		span.SetStatus(codes.Error, err.Error())
	}
	return view, err
}

// View claims a record by its identifier.
func (s *Service) View(ctx context.Context, category models.Category, id string) (*models.RecordView, error) {
	start := time.Now()
	defer s.metrics.ObserveLatency("view", start)

	ctx, span := s.tracer.Start(ctx, "records.View")
	defer span.End()
	span.SetAttributes(
		attribute.String("category", string(category)),
		attribute.String("record_id", id),
	)

	desc, err := descriptor(category)
	if err != nil {
		return nil, err
	}
	recordID, err := domain.ParseRecordID(id)
	if err != nil {
		return nil, err
	}
	view, err := s.claim(ctx, desc, store.Filter{Category: desc.Category, ID: recordID.String()})
	if err != nil && !dErrors.HasCode(err, dErrors.CodeNotFound) {
		span.SetStatus(codes.Error, err.Error())
	}
	return view, err
}

// claim runs the conditional claimed:false -> true transition and falls back
// to a plain read when another claimant won.
func (s *Service) claim(ctx context.Context, desc models.Descriptor, filter store.Filter) (*models.RecordView, error) {
	now := requestcontext.Now(ctx)
	update := store.Update{
		Claim: &store.ClaimMark{At: now, ExpireAt: now.Add(s.grace)},
		At:    now,
	}

	rec, err := s.store.ConditionalUpdate(ctx, filter.Unclaimed(), update)
	if err == nil {
		s.increment(ctx, statsmodels.ClaimedDocuments)
		s.metrics.IncrementClaim(string(desc.Category), metrics.ClaimResultClaimed)
		s.logger.InfoContext(ctx, "record claimed",
			"request_id", requestcontext.RequestID(ctx),
			"category", desc.Category,
			"record_id", rec.ID,
		)
		return rec.View(), nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, s.storeUnavailable(ctx, "claim", err)
	}

	rec, err = s.store.FindOne(ctx, filter.AnyClaimState())
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.IncrementClaim(string(desc.Category), metrics.ClaimResultNotFound)
			return nil, dErrors.New(dErrors.CodeNotFound, "no matching record found.")
		}
		return nil, s.storeUnavailable(ctx, "find_claimed", err)
	}
	s.metrics.IncrementClaim(string(desc.Category), metrics.ClaimResultAlreadyClaimed)
	return rec.View(), nil
}

// Search lists unclaimed records matching the given fields without claiming
// them. Results omit doc_location and finder_contact.
func (s *Service) Search(ctx context.Context, category models.Category, criteria map[string]string, limit int) ([]models.RecordView, error) {
	start := time.Now()
	defer s.metrics.ObserveLatency("search", start)

	ctx, span := s.tracer.Start(ctx, "records.Search")
	defer span.End()
	span.SetAttributes(attribute.String("category", string(category)))

	desc, err := descriptor(category)
	if err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = DefaultSearchLimit
	}
	if limit < 1 || limit > MaxSearchLimit {
		return nil, dErrors.Newf(dErrors.CodeValidation, "limit must be between 1 and %d.", MaxSearchLimit)
	}
	prep, err := s.prepareFields(desc, criteria, modeSearch)
	if err != nil {
		return nil, err
	}
	if len(prep.fields) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one search field is required.")
	}

	filter := store.Filter{Category: desc.Category, Fields: prep.fields}
	if prep.uniqueKey != "" {
		filter = store.Filter{Category: desc.Category, UniqueKey: prep.uniqueKey}
	}
	records, err := s.store.Find(ctx, filter.Unclaimed(), limit)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, s.storeUnavailable(ctx, "search", err)
	}

	out := make([]models.RecordView, 0, len(records))
	for _, r := range records {
		out = append(out, r.Teaser())
	}
	span.SetAttributes(attribute.Int("results", len(out)))
	return out, nil
}
