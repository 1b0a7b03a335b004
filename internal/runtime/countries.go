package runtime

import (
	"sort"
	"strings"
)

// Country holds the national significant number length for a dial code.
type Country struct {
	Name      string
	DialCode  string
	MinDigits int
	MaxDigits int
}

// countries is keyed by dial code. Where several countries share a code the
// most common numbering plan is used.
var countries = map[string]Country{
	"+1":   {"United States", "+1", 10, 10},
	"+7":   {"Russia", "+7", 10, 10},
	"+20":  {"Egypt", "+20", 10, 10},
	"+27":  {"South Africa", "+27", 9, 9},
	"+30":  {"Greece", "+30", 10, 10},
	"+31":  {"Netherlands", "+31", 9, 9},
	"+32":  {"Belgium", "+32", 8, 9},
	"+33":  {"France", "+33", 9, 9},
	"+34":  {"Spain", "+34", 9, 9},
	"+36":  {"Hungary", "+36", 8, 9},
	"+39":  {"Italy", "+39", 9, 10},
	"+40":  {"Romania", "+40", 9, 9},
	"+41":  {"Switzerland", "+41", 9, 9},
	"+43":  {"Austria", "+43", 10, 13},
	"+44":  {"United Kingdom", "+44", 10, 10},
	"+45":  {"Denmark", "+45", 8, 8},
	"+46":  {"Sweden", "+46", 7, 9},
	"+47":  {"Norway", "+47", 8, 8},
	"+48":  {"Poland", "+48", 9, 9},
	"+49":  {"Germany", "+49", 10, 11},
	"+51":  {"Peru", "+51", 9, 9},
	"+52":  {"Mexico", "+52", 10, 10},
	"+54":  {"Argentina", "+54", 10, 10},
	"+55":  {"Brazil", "+55", 10, 11},
	"+56":  {"Chile", "+56", 9, 9},
	"+57":  {"Colombia", "+57", 10, 10},
	"+58":  {"Venezuela", "+58", 10, 10},
	"+60":  {"Malaysia", "+60", 9, 10},
	"+61":  {"Australia", "+61", 9, 9},
	"+62":  {"Indonesia", "+62", 9, 12},
	"+63":  {"Philippines", "+63", 10, 10},
	"+64":  {"New Zealand", "+64", 8, 10},
	"+65":  {"Singapore", "+65", 8, 8},
	"+66":  {"Thailand", "+66", 9, 9},
	"+81":  {"Japan", "+81", 10, 10},
	"+82":  {"South Korea", "+82", 9, 10},
	"+84":  {"Vietnam", "+84", 9, 10},
	"+86":  {"China", "+86", 11, 11},
	"+90":  {"Turkey", "+90", 10, 10},
	"+91":  {"India", "+91", 10, 10},
	"+92":  {"Pakistan", "+92", 10, 10},
	"+212": {"Morocco", "+212", 9, 9},
	"+234": {"Nigeria", "+234", 10, 10},
	"+254": {"Kenya", "+254", 9, 9},
	"+351": {"Portugal", "+351", 9, 9},
	"+353": {"Ireland", "+353", 9, 9},
	"+358": {"Finland", "+358", 9, 10},
	"+380": {"Ukraine", "+380", 9, 9},
	"+420": {"Czech Republic", "+420", 9, 9},
	"+971": {"United Arab Emirates", "+971", 9, 9},
	"+972": {"Israel", "+972", 9, 9},
	"+966": {"Saudi Arabia", "+966", 9, 9},
}

// LookupCountry resolves a dial code such as "+44" or the option encoding "United Kingdom|+44".
func LookupCountry(code string) (Country, bool) {
	c, ok := countries[dialCode(code)]
	return c, ok
}

// Countries returns the known dial code table sorted by name.
func Countries() []Country {
	out := make([]Country, 0, len(countries))
	for _, c := range countries {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// dialCode strips the "Label|" prefix of a compound option value.
func dialCode(v string) string {
	v = strings.TrimSpace(v)
	if i := strings.LastIndex(v, "|"); i >= 0 {
		v = v[i+1:]
	}
	return strings.TrimSpace(v)
}
