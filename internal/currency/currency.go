package currency

import "strings"

// Currency is one of the supported display currencies
type Currency string

const (
	KES Currency = "KES"
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
)

// Base is the currency listing prices are stored in
const Base = KES

// DefaultCurrency is the fallback when detection yields no match
const DefaultCurrency = USD

// PersistKey is the client-local storage key for the active currency
const PersistKey = "preferredCurrency"

// Info carries the fixed presentation attributes of a currency
type Info struct {
	Code     Currency `json:"code"`
	Symbol   string   `json:"symbol"`
	Flag     string   `json:"flag"`
	Name     string   `json:"name"`
	Decimals int      `json:"decimals"`
}

var infos = map[Currency]Info{
	KES: {Code: KES, Symbol: "KSh", Flag: "🇰🇪", Name: "Kenyan Shilling", Decimals: 0},
	USD: {Code: USD, Symbol: "$", Flag: "🇺🇸", Name: "US Dollar", Decimals: 2},
	EUR: {Code: EUR, Symbol: "€", Flag: "🇪🇺", Name: "Euro", Decimals: 2},
	GBP: {Code: GBP, Symbol: "£", Flag: "🇬🇧", Name: "British Pound", Decimals: 2},
}

// Supported returns the supported currencies in display order
func Supported() []Currency {
	return []Currency{KES, USD, EUR, GBP}
}

// Lookup returns presentation info for a currency
func Lookup(c Currency) (Info, bool) {
	info, ok := infos[c]
	return info, ok
}

// Parse maps a string to a supported currency
func Parse(s string) (Currency, bool) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := infos[c]
	return c, ok
}

// euroRegions are the region subtags mapped to EUR
var euroRegions = map[string]struct{}{
	"AT": {}, "BE": {}, "CY": {}, "DE": {}, "EE": {}, "ES": {}, "FI": {},
	"FR": {}, "GR": {}, "IE": {}, "IT": {}, "LT": {}, "LU": {}, "LV": {},
	"MT": {}, "NL": {}, "PT": {}, "SI": {}, "SK": {},
}

// Detect picks the nearest supported currency from a locale hint, an
// Accept-Language style string such as "en-KE" or "en-GB,en;q=0.9".
// No match falls back to DefaultCurrency.
func Detect(localeHint string) Currency {
	for _, part := range strings.Split(localeHint, ",") {
		tag := strings.TrimSpace(part)
		if i := strings.IndexByte(tag, ';'); i >= 0 {
			tag = tag[:i]
		}
		region := regionOf(tag)
		if region == "" {
			continue
		}
		switch region {
		case "KE":
			return KES
		case "US":
			return USD
		case "GB":
			return GBP
		default:
			if _, ok := euroRegions[region]; ok {
				return EUR
			}
		}
	}
	return DefaultCurrency
}

// regionOf extracts the two-letter region subtag from a language tag
// such as "en-KE" or "sw_KE". The leading language subtag is skipped.
func regionOf(tag string) string {
	tag = strings.ReplaceAll(tag, "_", "-")
	subs := strings.Split(tag, "-")
	for _, sub := range subs[1:] {
		upper := strings.ToUpper(sub)
		if len(upper) == 2 && isAlpha(upper) {
			return upper
		}
	}
	return ""
}

func isAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}
