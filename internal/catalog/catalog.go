// Package catalog holds the closed value sets that enumerated report fields are
// canonicalized against, plus the static lookup tables the engine consumes
// (province→district, phone pattern, national ID district codes).
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"

	"lostfound/pkg/domain"
	pstrings "lostfound/pkg/platform/strings"
)

//go:embed default_catalog.jsonc
var defaultCatalog []byte

// Province is one entry of the province→district lookup table.
type Province struct {
	Name      string   `json:"name"`
	Districts []string `json:"districts"`
}

// Catalog is immutable after Load.
type Catalog struct {
	BaggageItemTypes   []string   `json:"baggage_item_types"`
	TransportTypes     []string   `json:"transport_types"`
	RouteTypes         []string   `json:"route_types"`
	GatheringItemTypes []string   `json:"gathering_item_types"`
	GatheringTypes     []string   `json:"gathering_types"`
	CertificateTypes   []string   `json:"certificate_types"`
	Provinces          []Province `json:"provinces"`
	PhonePattern       string     `json:"phone_pattern"`
	DistrictCodes      []string   `json:"district_codes"`

	provinceNames []string
	districts     map[string][]string
	phone         *domain.PhoneValidator
	nationalID    *domain.NationalIDValidator
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a JSONC catalog file. An empty path selects the embedded default.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a JSONC (JSON with comments and trailing commas) catalog.
func Parse(data []byte) (*Catalog, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	var c Catalog
	if err := json.Unmarshal(standardized, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.prepare(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) prepare() error {
	c.BaggageItemTypes = pstrings.DedupeFold(c.BaggageItemTypes)
	c.TransportTypes = pstrings.DedupeFold(c.TransportTypes)
	c.RouteTypes = pstrings.DedupeFold(c.RouteTypes)
	c.GatheringItemTypes = pstrings.DedupeFold(c.GatheringItemTypes)
	c.GatheringTypes = pstrings.DedupeFold(c.GatheringTypes)
	c.CertificateTypes = pstrings.DedupeFold(c.CertificateTypes)
	c.DistrictCodes = pstrings.DedupeAndTrim(c.DistrictCodes)

	for _, name := range []string{
		SetBaggageItemTypes, SetTransportTypes, SetRouteTypes,
		SetGatheringItemTypes, SetGatheringTypes, SetCertificateTypes,
	} {
		if len(c.Set(name)) == 0 {
			return fmt.Errorf("catalog: %s must not be empty", name)
		}
	}
	if len(c.Provinces) == 0 {
		return fmt.Errorf("catalog: provinces must not be empty")
	}

	c.districts = make(map[string][]string, len(c.Provinces))
	c.provinceNames = make([]string, 0, len(c.Provinces))
	for i := range c.Provinces {
		p := &c.Provinces[i]
		p.Districts = pstrings.DedupeFold(p.Districts)
		if p.Name == "" || len(p.Districts) == 0 {
			return fmt.Errorf("catalog: province %d needs a name and districts", i)
		}
		c.provinceNames = append(c.provinceNames, p.Name)
		c.districts[p.Name] = p.Districts
	}
	c.provinceNames = pstrings.DedupeFold(c.provinceNames)

	phone, err := domain.NewPhoneValidator(c.PhonePattern)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	c.phone = phone

	codes := c.DistrictCodes
	if len(codes) == 0 {
		codes = domain.DefaultDistrictCodes
	}
	c.nationalID = domain.NewNationalIDValidator(codes)
	return nil
}

// ProvinceNames returns the canonical province names in catalog order.
func (c *Catalog) ProvinceNames() []string {
	return c.provinceNames
}

// Districts returns the districts of a canonical province name.
func (c *Catalog) Districts(province string) []string {
	return c.districts[province]
}

// Phone returns the finder contact validator.
func (c *Catalog) Phone() *domain.PhoneValidator {
	return c.phone
}

// NationalID returns the national ID validator.
func (c *Catalog) NationalID() *domain.NationalIDValidator {
	return c.nationalID
}

// Names of the closed sets a category field can be canonicalized against.
const (
	SetBaggageItemTypes   = "baggage_item_types"
	SetTransportTypes     = "transport_types"
	SetRouteTypes         = "route_types"
	SetGatheringItemTypes = "gathering_item_types"
	SetGatheringTypes     = "gathering_types"
	SetCertificateTypes   = "certificate_types"
	SetProvinces          = "provinces"
)

// Set returns the named closed set, or nil for an unknown name.
func (c *Catalog) Set(name string) []string {
	switch name {
	case SetBaggageItemTypes:
		return c.BaggageItemTypes
	case SetTransportTypes:
		return c.TransportTypes
	case SetRouteTypes:
		return c.RouteTypes
	case SetGatheringItemTypes:
		return c.GatheringItemTypes
	case SetGatheringTypes:
		return c.GatheringTypes
	case SetCertificateTypes:
		return c.CertificateTypes
	case SetProvinces:
		return c.provinceNames
	default:
		return nil
	}
}

// AllDistricts returns every district across provinces, used when a search
// names a district without its province.
func (c *Catalog) AllDistricts() []string {
	var all []string
	for _, p := range c.Provinces {
		all = append(all, p.Districts...)
	}
	return pstrings.DedupeFold(all)
}
