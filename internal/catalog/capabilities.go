package catalog

import "sort"

type Capability string

const (
	CapabilityTransfers    Capability = "transfers"
	CapabilityCardPayments Capability = "card_payments"
	CapabilityACHDebit     Capability = "us_bank_account_ach_payments"
	CapabilitySEPADebit    Capability = "sepa_debit_payments"
	CapabilityBACSDebit    Capability = "bacs_debit_payments"
	CapabilityBECSDebit    Capability = "au_becs_debit_payments"
	CapabilityACSSDebit    Capability = "acss_debit_payments"
)

// CapabilitySet maps a capability to its "requested" flag on account creation.
type CapabilitySet map[Capability]bool

func (s CapabilitySet) Has(c Capability) bool {
	return s[c]
}

// Names returns the requested capabilities in sorted order.
func (s CapabilitySet) Names() []Capability {
	names := make([]Capability, 0, len(s))
	for c, requested := range s {
		if requested {
			names = append(names, c)
		}
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Payee accounts in these countries cannot hold card-acquiring capability.
var noCardPayments = map[string]struct{}{
	"MX": {}, "HK": {}, "TH": {}, "IS": {},
}

var localDebitCapability = map[string]Capability{
	"US": CapabilityACHDebit,
	"GB": CapabilityBACSDebit,
	"AU": CapabilityBECSDebit,
	"CA": CapabilityACSSDebit,
}

var capabilityTable = buildCapabilityTable()

func buildCapabilityTable() map[string]CapabilitySet {
	table := make(map[string]CapabilitySet, len(countries))
	for code, c := range countries {
		set := CapabilitySet{CapabilityTransfers: true}
		if _, excluded := noCardPayments[code]; !excluded {
			set[CapabilityCardPayments] = true
		}
		if debit, ok := localDebitCapability[code]; ok {
			set[debit] = true
		} else if c.Region == RegionSEPA {
			set[CapabilitySEPADebit] = true
		}
		table[code] = set
	}
	return table
}

// CapabilitiesFor returns the capabilities to request for a payee account in
// the country. Unknown countries get transfers and card payments only.
func CapabilitiesFor(country string) CapabilitySet {
	set, ok := capabilityTable[NormalizeCountry(country)]
	if !ok {
		return CapabilitySet{CapabilityTransfers: true, CapabilityCardPayments: true}
	}
	out := make(CapabilitySet, len(set))
	for k, v := range set {
		out[k] = v
	}
	return out
}
