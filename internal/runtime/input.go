package runtime

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/aretw0/formflow/pkg/domain"
)

// Rejection messages shown to respondents.
const (
	MsgRequired          = "Please enter a value"
	MsgInvalidEmail      = "Please enter a valid email address"
	MsgInvalidPhoneChars = "Phone number can only contain digits, spaces, +, -, ( and )"
	MsgInvalidPhone      = "Please enter a valid phone number"
	MsgInvalidNumber     = "Please enter a valid number"
	MsgInvalidCountry    = "Please select a valid country code"
	MsgInvalidChoice     = "Please choose one of the available options"
)

var (
	emailRe       = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneCharsRe  = regexp.MustCompile(`^[\d\s+\-()]+$`)
	countryCodeRe = regexp.MustCompile(`^\+\d{1,4}$`)
	sniffCodeRe   = regexp.MustCompile(`^(?:[^|]*\|)?(\+\d{1,4})$`)
)

// InputContext carries what a validator may consult besides the raw answer.
type InputContext struct {
	// Data and DataOrder are the answers collected so far.
	Data      map[string]any
	DataOrder []string
}

// InputResult is the outcome of ProcessInput. Exactly one of Value or Error is meaningful.
type InputResult struct {
	OK    bool
	Value any
	Error string
}

func accept(v any) InputResult      { return InputResult{OK: true, Value: v} }
func reject(msg string) InputResult { return InputResult{Error: msg} }

// ProcessInput normalizes and validates a raw answer for input.
// It never mutates ictx; the caller persists the accepted value.
func ProcessInput(raw any, input domain.Input, ictx InputContext) InputResult {
	switch input.Type {
	case domain.InputNone, "":
		return accept(nil)
	case domain.InputChoice:
		return processChoice(raw, input.Options)
	}

	text := strings.TrimSpace(Stringify(raw))
	if text == "" {
		return reject(MsgRequired)
	}

	switch input.DataType {
	case domain.DataName:
		return accept(titleCase(text))
	case domain.DataEmail:
		return processEmail(text)
	case domain.DataPhone:
		return processPhone(text, resolvePhoneCountry(input, ictx))
	case domain.DataNumber:
		return processNumber(raw, text)
	case domain.DataCountryCode:
		return processCountryCode(text)
	default:
		return accept(text)
	}
}

func processChoice(raw any, options []domain.Option) InputResult {
	if raw == nil {
		return reject(MsgInvalidChoice)
	}
	answer := strings.TrimSpace(Stringify(raw))
	for _, opt := range options {
		if valuesEqual(raw, opt.Value) || Stringify(opt.Value) == answer {
			return accept(opt.Value)
		}
	}
	for _, opt := range options {
		if strings.EqualFold(opt.Label, answer) {
			return accept(opt.Value)
		}
	}
	return reject(MsgInvalidChoice)
}

// titleCase lower-cases s and capitalises the first letter of each space-delimited word.
func titleCase(s string) string {
	words := strings.Split(strings.ToLower(s), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func processEmail(text string) InputResult {
	if !emailRe.MatchString(text) {
		return reject(MsgInvalidEmail)
	}
	return accept(text)
}

// resolvePhoneCountry prefers the step's own country code and otherwise
// sniffs previously collected answers for something shaped like one.
func resolvePhoneCountry(input domain.Input, ictx InputContext) string {
	if input.CountryCode != "" {
		return dialCode(input.CountryCode)
	}
	for _, key := range orderedKeys(ictx) {
		s, ok := ictx.Data[key].(string)
		if !ok {
			continue
		}
		if m := sniffCodeRe.FindStringSubmatch(strings.TrimSpace(s)); m != nil {
			return m[1]
		}
	}
	return ""
}

func orderedKeys(ictx InputContext) []string {
	if len(ictx.DataOrder) > 0 {
		return ictx.DataOrder
	}
	keys := make([]string, 0, len(ictx.Data))
	for k := range ictx.Data {
		keys = append(keys, k)
	}
	// No recorded order: fall back to a stable one.
	sort.Strings(keys)
	return keys
}

func processPhone(text, code string) InputResult {
	if !phoneCharsRe.MatchString(text) {
		return reject(MsgInvalidPhoneChars)
	}
	digits := onlyDigits(text)

	country, known := LookupCountry(code)
	if !known {
		if len(digits) < 5 || len(digits) > 15 {
			return reject(MsgInvalidPhone)
		}
		return accept(text)
	}

	// A number typed with its own international prefix is measured without it.
	prefix := strings.TrimPrefix(country.DialCode, "+")
	if strings.HasPrefix(text, "+") && strings.HasPrefix(digits, prefix) {
		digits = digits[len(prefix):]
	}

	if len(digits) < country.MinDigits || len(digits) > country.MaxDigits {
		return reject(phoneLengthMessage(country))
	}
	return accept(text)
}

func phoneLengthMessage(c Country) string {
	if c.MinDigits == c.MaxDigits {
		return fmt.Sprintf("Phone number must be %d digits", c.MinDigits)
	}
	return fmt.Sprintf("Phone number must be between %d and %d digits", c.MinDigits, c.MaxDigits)
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func processNumber(raw any, text string) InputResult {
	if f, ok := numericValue(raw); ok {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return reject(MsgInvalidNumber)
		}
		return accept(normalizeNumber(f))
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return reject(MsgInvalidNumber)
	}
	return accept(normalizeNumber(f))
}

// normalizeNumber keeps integral values as int64 so they print without a fraction.
func normalizeNumber(f float64) any {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f)
	}
	return f
}

func processCountryCode(text string) InputResult {
	code := dialCode(text)
	if !countryCodeRe.MatchString(code) {
		return reject(MsgInvalidCountry)
	}
	if _, ok := LookupCountry(code); !ok {
		return reject(MsgInvalidCountry)
	}
	return accept(text)
}
