package catalog

import "github.com/anyulbade/annotation-payouts/internal/money"

// DefaultMinimumCharge is the smallest chargeable amount in minor units for
// currencies without an explicit entry.
const DefaultMinimumCharge int64 = 50

var euroCountries = []string{"DE", "FR", "ES", "IT", "NL", "BE", "AT", "IE", "PT", "FI"}

// Native currency first, "usd" always present.
var currencyTable = buildCurrencyTable()

func buildCurrencyTable() map[string][]string {
	table := map[string][]string{
		"US": {"usd"},
		"CA": {"cad", "usd"},
		"MX": {"mxn", "usd"},
		"BR": {"brl", "usd"},
		"GB": {"gbp", "eur", "usd"},
		"CH": {"chf", "eur", "usd"},
		"NO": {"nok", "eur", "usd"},
		"IS": {"isk", "eur", "usd"},
		"SE": {"sek", "eur", "usd"},
		"DK": {"dkk", "eur", "usd"},
		"PL": {"pln", "eur", "usd"},
		"AU": {"aud", "usd"},
		"NZ": {"nzd", "usd"},
		"JP": {"jpy", "usd"},
		"SG": {"sgd", "usd"},
		"HK": {"hkd", "usd"},
		"TH": {"thb", "usd"},
		"IN": {"inr", "usd"},
		"AE": {"aed", "usd"},
	}
	for _, code := range euroCountries {
		table[code] = []string{"eur", "gbp", "usd"}
	}
	return table
}

var minimumCharge = map[string]int64{
	"usd": 50,
	"aud": 50,
	"brl": 50,
	"cad": 50,
	"chf": 50,
	"eur": 50,
	"inr": 50,
	"jpy": 50,
	"nzd": 50,
	"sgd": 50,
	"gbp": 30,
	"aed": 200,
	"pln": 200,
	"dkk": 250,
	"nok": 300,
	"sek": 300,
	"hkd": 400,
	"mxn": 1000,
	"thb": 1000,
}

// CurrenciesFor lists the currencies a payee account in the country can
// receive, native currency first. Unknown countries can receive usd only.
func CurrenciesFor(country string) []string {
	list, ok := currencyTable[NormalizeCountry(country)]
	if !ok {
		return []string{"usd"}
	}
	out := make([]string, len(list))
	copy(out, list)
	return out
}

func IsSupported(country, currency string) bool {
	currency = money.Normalize(currency)
	for _, c := range CurrenciesFor(country) {
		if c == currency {
			return true
		}
	}
	return false
}

// MinimumCharge returns the smallest chargeable amount in minor units.
func MinimumCharge(currency string) int64 {
	if amount, ok := minimumCharge[money.Normalize(currency)]; ok {
		return amount
	}
	return DefaultMinimumCharge
}
