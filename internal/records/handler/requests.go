package handler

import (
	"lostfound/internal/records/models"
	dErrors "lostfound/pkg/domain-errors"
)

// ReportRequest is the body of POST /api/v1/{category}/reports.
type ReportRequest struct {
	Fields        map[string]string `json:"fields"`
	DocLocation   string            `json:"doc_location"`
	FinderContact string            `json:"finder_contact"`
}

func (r *ReportRequest) Validate() error {
	if len(r.Fields) == 0 {
		return dErrors.New(dErrors.CodeValidation, "fields is required.")
	}
	return nil
}

func (r *ReportRequest) toReport() models.Report {
	return models.Report{Fields: r.Fields, DocLocation: r.DocLocation, FinderContact: r.FinderContact}
}

// ClaimRequest is the body of POST /api/v1/{category}/claims.
type ClaimRequest struct {
	Fields map[string]string `json:"fields"`
}

func (r *ClaimRequest) Validate() error {
	if len(r.Fields) == 0 {
		return dErrors.New(dErrors.CodeValidation, "fields is required.")
	}
	return nil
}

// SearchRequest is the body of POST /api/v1/{category}/search.
type SearchRequest struct {
	Fields map[string]string `json:"fields"`
	Limit  int               `json:"limit,omitempty"`
}

func (r *SearchRequest) Validate() error {
	if r.Limit < 0 {
		return dErrors.New(dErrors.CodeValidation, "limit must not be negative.")
	}
	return nil
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []models.RecordView `json:"results"`
	Count   int                 `json:"count"`
}
