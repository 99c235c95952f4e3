package payzen

import "fmt"

// ISO 4217 alpha-3 to numeric codes for the currencies the gateway accepts.
var currencyCodes = map[string]int{
	"AUD": 36,
	"CAD": 124,
	"CHF": 756,
	"CNY": 156,
	"DKK": 208,
	"EUR": 978,
	"GBP": 826,
	"JPY": 392,
	"NOK": 578,
	"NZD": 554,
	"PLN": 985,
	"SEK": 752,
	"USD": 840,
	"XPF": 953,
}

// CurrencyCode maps an ISO alpha-3 code to the gateway's numeric code.
// Unknown codes fail rather than defaulting.
func CurrencyCode(alpha3 string) (int, error) {
	code, ok := currencyCodes[alpha3]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCurrency, alpha3)
	}
	return code, nil
}
