package catalog

// NeedsCrossBorder reports whether a payment from the platform to a payee must
// use on-behalf-of routing. Only an identical country settles domestically;
// two SEPA members still count as cross-border.
func NeedsCrossBorder(payeeCountry, platformCountry string) bool {
	return NormalizeCountry(payeeCountry) != NormalizeCountry(platformCountry)
}
