package runtime

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{(\w+)\}`)

// Interpolate replaces every {name} placeholder with the string form of data[name].
// Placeholders whose variable is absent are left untouched.
// Substituted values in "Label|+Code" form are displayed as "Label +Code".
func Interpolate(text string, data map[string]any) string {
	if !strings.Contains(text, "{") {
		return text
	}
	return placeholderRe.ReplaceAllStringFunc(text, func(match string) string {
		name := match[1 : len(match)-1]
		v, ok := data[name]
		if !ok || v == nil {
			return match
		}
		return DisplayValue(v)
	})
}

// DisplayValue renders a stored value for humans.
func DisplayValue(v any) string {
	return strings.ReplaceAll(Stringify(v), "|+", " +")
}

// ExtractVariables lists the placeholder names referenced in text,
// deduplicated, in first-seen order.
func ExtractVariables(text string) []string {
	matches := placeholderRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

// MissingVariables returns the names in refs that have no value in data.
func MissingVariables(refs []string, data map[string]any) []string {
	var missing []string
	for _, name := range refs {
		if v, ok := data[name]; !ok || v == nil {
			missing = append(missing, name)
		}
	}
	return missing
}

// Stringify converts a collected value to its plain string form.
// Integral floats print without a fractional part; lists are comma separated.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return formatFloat(x)
	case float32:
		return formatFloat(float64(x))
	case json.Number:
		return x.String()
	case []any:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = Stringify(item)
		}
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(x, ", ")
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
