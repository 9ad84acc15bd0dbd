package models

import (
	"lostfound/internal/catalog"
	dErrors "lostfound/pkg/domain-errors"
)

// Category selects which descriptor governs a record. Fixed at creation.
type Category string

const (
	CategoryBaggage           Category = "baggage"
	CategoryNationalID        Category = "national_id"
	CategoryDriversLicence    Category = "drivers_licence"
	CategoryPassport          Category = "passport"
	CategoryBirthCertificate  Category = "birth_certificate"
	CategorySchoolCertificate Category = "school_certificate"
	CategoryGatheringItem     Category = "gathering_item"
)

// Role describes how a field takes part in deduplication and matching.
type Role int

const (
	// RoleIdentity fields are trimmed and lower-cased.
	RoleIdentity Role = iota
	// RoleUniqueKey is the upper-cased document number of a unique-key category.
	RoleUniqueKey
	// RoleClassification fields are canonicalized against a closed set.
	RoleClassification
	// RoleLocation fields are trimmed and lower-cased, except province and
	// district which are canonicalized against the province table.
	RoleLocation
)

// KeyFormat selects the validator for a unique key.
type KeyFormat int

const (
	KeyNone KeyFormat = iota
	KeyNationalID
	KeyLicence
	KeyPassport
)

// Well-known field names shared by several categories.
const (
	FieldProvince = "province"
	FieldDistrict = "district"
	FieldLastName = "last_name"
)

// Field is one entry of a category's field list.
type Field struct {
	Name     string
	Role     Role
	Set      string // catalog set name for classification fields
	Optional bool
}

// Descriptor parameterizes the generic engine for one category.
type Descriptor struct {
	Category      Category
	InitialStatus Status
	KeyFormat     KeyFormat
	Fields        []Field
}

// HasUniqueKey reports whether the category deduplicates on a document number.
func (d Descriptor) HasUniqueKey() bool {
	return d.KeyFormat != KeyNone
}

// UniqueKeyField returns the field holding the unique key, if any.
func (d Descriptor) UniqueKeyField() (Field, bool) {
	for _, f := range d.Fields {
		if f.Role == RoleUniqueKey {
			return f, true
		}
	}
	return Field{}, false
}

// Field looks up a field by name.
func (d Descriptor) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

var descriptors = map[Category]Descriptor{
	CategoryBaggage: {
		Category:      CategoryBaggage,
		InitialStatus: StatusFound,
		Fields: []Field{
			{Name: "item_type", Role: RoleClassification, Set: catalog.SetBaggageItemTypes},
			{Name: "transport_type", Role: RoleClassification, Set: catalog.SetTransportTypes},
			{Name: "route_type", Role: RoleClassification, Set: catalog.SetRouteTypes},
			{Name: FieldProvince, Role: RoleLocation},
			{Name: FieldDistrict, Role: RoleLocation},
			{Name: "destination", Role: RoleLocation},
		},
	},
	CategoryNationalID: {
		Category:      CategoryNationalID,
		InitialStatus: StatusFound,
		KeyFormat:     KeyNationalID,
		Fields: []Field{
			{Name: "id_number", Role: RoleUniqueKey},
			{Name: FieldLastName, Role: RoleIdentity, Optional: true},
		},
	},
	CategoryDriversLicence: {
		Category:      CategoryDriversLicence,
		InitialStatus: StatusFound,
		KeyFormat:     KeyLicence,
		Fields: []Field{
			{Name: "licence_number", Role: RoleUniqueKey},
			{Name: FieldLastName, Role: RoleIdentity, Optional: true},
		},
	},
	CategoryPassport: {
		Category:      CategoryPassport,
		InitialStatus: StatusFound,
		KeyFormat:     KeyPassport,
		Fields: []Field{
			{Name: "passport_number", Role: RoleUniqueKey},
			{Name: FieldLastName, Role: RoleIdentity, Optional: true},
		},
	},
	CategoryBirthCertificate: {
		Category:      CategoryBirthCertificate,
		InitialStatus: StatusFound,
		Fields: []Field{
			{Name: "first_name", Role: RoleIdentity},
			{Name: FieldLastName, Role: RoleIdentity},
			{Name: "mother_last_name", Role: RoleIdentity},
			{Name: FieldProvince, Role: RoleLocation},
			{Name: FieldDistrict, Role: RoleLocation},
		},
	},
	CategorySchoolCertificate: {
		Category:      CategorySchoolCertificate,
		InitialStatus: StatusFound,
		Fields: []Field{
			{Name: "first_name", Role: RoleIdentity},
			{Name: FieldLastName, Role: RoleIdentity},
			{Name: "certificate_type", Role: RoleClassification, Set: catalog.SetCertificateTypes},
			{Name: "school_name", Role: RoleLocation},
		},
	},
	// Gathering items start as lost and become found when claimed.
	CategoryGatheringItem: {
		Category:      CategoryGatheringItem,
		InitialStatus: StatusLost,
		Fields: []Field{
			{Name: "item_type", Role: RoleClassification, Set: catalog.SetGatheringItemTypes},
			{Name: "gathering_type", Role: RoleClassification, Set: catalog.SetGatheringTypes},
			{Name: "gathering_location", Role: RoleLocation},
			{Name: FieldProvince, Role: RoleLocation},
			{Name: FieldDistrict, Role: RoleLocation},
		},
	},
}

// Categories lists every category in a stable order.
var Categories = []Category{
	CategoryBaggage,
	CategoryNationalID,
	CategoryDriversLicence,
	CategoryPassport,
	CategoryBirthCertificate,
	CategorySchoolCertificate,
	CategoryGatheringItem,
}

// DescriptorFor returns the descriptor for c.
//
// Errors: CodeNotFound for an unknown category.
func DescriptorFor(c Category) (Descriptor, error) {
	d, ok := descriptors[c]
	if !ok {
		return Descriptor{}, dErrors.Newf(dErrors.CodeNotFound, "unknown category %q", string(c))
	}
	return d, nil
}
