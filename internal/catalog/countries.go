package catalog

import (
	"sort"
	"strings"
)

// Region tags a country with the settlement area it belongs to.
type Region string

const (
	RegionNorthAmerica Region = "north_america"
	RegionSEPA         Region = "sepa"
	RegionEurope       Region = "europe"
	RegionAPAC         Region = "apac"
	RegionLatAm        Region = "latam"
	RegionMiddleEast   Region = "middle_east"
)

type country struct {
	Name   string
	Region Region
}

var countries = map[string]country{
	"US": {"United States", RegionNorthAmerica},
	"CA": {"Canada", RegionNorthAmerica},
	"MX": {"Mexico", RegionLatAm},
	"BR": {"Brazil", RegionLatAm},
	"GB": {"United Kingdom", RegionEurope},
	"CH": {"Switzerland", RegionEurope},
	"NO": {"Norway", RegionEurope},
	"IS": {"Iceland", RegionEurope},
	"SE": {"Sweden", RegionSEPA},
	"DK": {"Denmark", RegionSEPA},
	"PL": {"Poland", RegionSEPA},
	"DE": {"Germany", RegionSEPA},
	"FR": {"France", RegionSEPA},
	"ES": {"Spain", RegionSEPA},
	"IT": {"Italy", RegionSEPA},
	"NL": {"Netherlands", RegionSEPA},
	"BE": {"Belgium", RegionSEPA},
	"AT": {"Austria", RegionSEPA},
	"IE": {"Ireland", RegionSEPA},
	"PT": {"Portugal", RegionSEPA},
	"FI": {"Finland", RegionSEPA},
	"AU": {"Australia", RegionAPAC},
	"NZ": {"New Zealand", RegionAPAC},
	"JP": {"Japan", RegionAPAC},
	"SG": {"Singapore", RegionAPAC},
	"HK": {"Hong Kong", RegionAPAC},
	"TH": {"Thailand", RegionAPAC},
	"IN": {"India", RegionAPAC},
	"AE": {"United Arab Emirates", RegionMiddleEast},
}

// NormalizeCountry upper-cases and trims an ISO 3166-1 alpha-2 code.
func NormalizeCountry(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsSupportedCountry reports whether payee accounts can be opened in the country.
func IsSupportedCountry(code string) bool {
	_, ok := countries[NormalizeCountry(code)]
	return ok
}

// CountryName returns the display name, or the code itself for unknown countries.
func CountryName(code string) string {
	code = NormalizeCountry(code)
	if c, ok := countries[code]; ok {
		return c.Name
	}
	return code
}

// CountryCodes returns every supported country code in sorted order.
func CountryCodes() []string {
	codes := make([]string, 0, len(countries))
	for code := range countries {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// CountryInfo is the full rule set for one supported country.
type CountryInfo struct {
	Code               string           `json:"code"`
	Name               string           `json:"name"`
	Region             Region           `json:"region"`
	CardPayments       bool             `json:"card_payments"`
	Capabilities       []Capability     `json:"capabilities"`
	Currencies         []string         `json:"currencies"`
	PaymentMethods     []PaymentMethod  `json:"payment_methods"`
	MinimumChargeMinor map[string]int64 `json:"minimum_charge_minor"`
}

func SupportedCountries() []CountryInfo {
	codes := CountryCodes()
	infos := make([]CountryInfo, 0, len(codes))
	for _, code := range codes {
		infos = append(infos, Describe(code))
	}
	return infos
}

// Describe assembles the CountryInfo for a single code. Unknown codes get the
// fallback tables.
func Describe(code string) CountryInfo {
	code = NormalizeCountry(code)
	caps := CapabilitiesFor(code)
	currencies := CurrenciesFor(code)

	minimums := make(map[string]int64, len(currencies))
	for _, c := range currencies {
		minimums[c] = MinimumCharge(c)
	}

	return CountryInfo{
		Code:               code,
		Name:               CountryName(code),
		Region:             countries[code].Region,
		CardPayments:       caps.Has(CapabilityCardPayments),
		Capabilities:       caps.Names(),
		Currencies:         currencies,
		PaymentMethods:     MethodsFor(code),
		MinimumChargeMinor: minimums,
	}
}
