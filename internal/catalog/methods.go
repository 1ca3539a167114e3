package catalog

import "strings"

type PaymentMethod string

const (
	MethodCard          PaymentMethod = "card"
	MethodUSBankAccount PaymentMethod = "us_bank_account"
	MethodSEPADebit     PaymentMethod = "sepa_debit"
	MethodBACSDebit     PaymentMethod = "bacs_debit"
	MethodAUBECSDebit   PaymentMethod = "au_becs_debit"
	MethodACSSDebit     PaymentMethod = "acss_debit"
)

var localMethods = map[string]PaymentMethod{
	"US": MethodUSBankAccount,
	"GB": MethodBACSDebit,
	"AU": MethodAUBECSDebit,
	"CA": MethodACSSDebit,
}

var methodTable = buildMethodTable()

func buildMethodTable() map[string][]PaymentMethod {
	table := make(map[string][]PaymentMethod, len(countries))
	for code, c := range countries {
		methods := []PaymentMethod{MethodCard}
		if m, ok := localMethods[code]; ok {
			methods = append(methods, m)
		} else if c.Region == RegionSEPA {
			methods = append(methods, MethodSEPADebit)
		}
		table[code] = methods
	}
	return table
}

// ParseMethod normalizes a payment method name.
func ParseMethod(raw string) PaymentMethod {
	return PaymentMethod(strings.ToLower(strings.TrimSpace(raw)))
}

// MethodsFor lists the payment methods a payer in the country can use.
// Card is always first.
func MethodsFor(country string) []PaymentMethod {
	list, ok := methodTable[NormalizeCountry(country)]
	if !ok {
		return []PaymentMethod{MethodCard}
	}
	out := make([]PaymentMethod, len(list))
	copy(out, list)
	return out
}

func MethodAvailable(country string, method PaymentMethod) bool {
	for _, m := range MethodsFor(country) {
		if m == method {
			return true
		}
	}
	return false
}
