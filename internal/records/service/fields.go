package service

import (
	"strings"
	"unicode"

	"lostfound/internal/catalog"
	"lostfound/internal/normalize"
	"lostfound/internal/records/models"
	"lostfound/pkg/domain"
	dErrors "lostfound/pkg/domain-errors"
)

// prepareMode controls which fields must be present.
type prepareMode int

const (
	// modeReport requires every non-optional field.
	modeReport prepareMode = iota
	// modeClaim requires the business key: the unique key for unique-key
	// categories, every field otherwise.
	modeClaim
	// modeSearch normalizes whatever is present.
	modeSearch
)

type prepared struct {
	fields    map[string]string
	uniqueKey string
}

// prepareFields canonicalizes and normalizes input in descriptor order so the
// first failing field is reported.
func (s *Service) prepareFields(desc models.Descriptor, input map[string]string, mode prepareMode) (*prepared, error) {
	for name := range input {
		if _, ok := desc.Field(name); !ok {
			return nil, dErrors.Newf(dErrors.CodeValidation, "%s is not a %s field.", name, desc.Category)
		}
	}

	out := &prepared{fields: make(map[string]string, len(desc.Fields))}
	for _, f := range desc.Fields {
		raw := input[f.Name]
		if strings.TrimSpace(raw) == "" && s.skippable(desc, f, mode) {
			continue
		}
		if mode == modeClaim && desc.HasUniqueKey() && f.Role != models.RoleUniqueKey {
			continue
		}

		value, err := s.normalizeField(f, raw, out.fields, mode)
		if err != nil {
			return nil, err
		}
		out.fields[f.Name] = value
		if f.Role == models.RoleUniqueKey {
			if !s.validKey(desc.KeyFormat, value) {
				return nil, dErrors.Newf(dErrors.CodeValidation, "%s is not valid.", f.Name)
			}
			out.uniqueKey = value
		}
	}
	return out, nil
}

func (s *Service) skippable(desc models.Descriptor, f models.Field, mode prepareMode) bool {
	switch mode {
	case modeSearch:
		return true
	case modeClaim:
		return f.Optional || (desc.HasUniqueKey() && f.Role != models.RoleUniqueKey)
	default:
		return f.Optional
	}
}

func (s *Service) normalizeField(f models.Field, raw string, sofar map[string]string, mode prepareMode) (string, error) {
	switch {
	case f.Role == models.RoleClassification:
		return catalog.Canonicalize(raw, s.catalog.Set(f.Set), f.Name)
	case f.Name == models.FieldProvince:
		return catalog.Canonicalize(raw, s.catalog.ProvinceNames(), f.Name)
	case f.Name == models.FieldDistrict:
		province, ok := sofar[models.FieldProvince]
		if !ok && mode == modeSearch {
			return catalog.Canonicalize(raw, s.catalog.AllDistricts(), f.Name)
		}
		return catalog.Canonicalize(raw, s.catalog.Districts(province), f.Name)
	case f.Role == models.RoleUniqueKey:
		v := normalize.Key(raw)
		if v == "" {
			return "", dErrors.Newf(dErrors.CodeValidation, "%s is required.", f.Name)
		}
		return v, nil
	default:
		v := normalize.Text(raw)
		if v == "" {
			return "", dErrors.Newf(dErrors.CodeValidation, "%s is required.", f.Name)
		}
		return v, nil
	}
}

func (s *Service) validKey(format models.KeyFormat, key string) bool {
	switch format {
	case models.KeyNationalID:
		return s.catalog.NationalID().Valid(key)
	case models.KeyPassport:
		return domain.IsValidPassportNumber(key)
	case models.KeyLicence:
		return domain.IsValidLicenceNumber(key)
	default:
		return true
	}
}

// prepareContact extracts digits and checks the mobile pattern.
func (s *Service) prepareContact(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", dErrors.New(dErrors.CodeValidation, "finder_contact is required.")
	}
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, raw)
	if !s.catalog.Phone().Valid(digits) {
		return "", dErrors.New(dErrors.CodeValidation, "finder_contact must be a valid mobile number.")
	}
	return digits, nil
}

func prepareDocLocation(raw string) (string, error) {
	v := normalize.Display(raw)
	if v == "" {
		return "", dErrors.New(dErrors.CodeValidation, "doc_location is required.")
	}
	return v, nil
}
