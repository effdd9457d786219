package itinerary

import (
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// numericToken matches the first number in a decorated string such as
// "₹1,200", "$ 45.50 per night" or "5 days".
var numericToken = regexp.MustCompile(`-?\d[\d,]*(?:\.\d+)?`)

// number coerces a JSON number or numeric string. ok is false when the value
// carries no number at all.
func number(v gjson.Result) (float64, bool) {
	switch v.Type {
	case gjson.Number:
		if d, err := decimal.NewFromString(v.Raw); err == nil {
			return d.InexactFloat64(), true
		}
		return v.Num, true
	case gjson.String:
		token := numericToken.FindString(v.Str)
		if token == "" {
			return 0, false
		}
		d, err := decimal.NewFromString(strings.ReplaceAll(token, ",", ""))
		if err != nil {
			return 0, false
		}
		return d.InexactFloat64(), true
	default:
		return 0, false
	}
}

// amount is number clamped to a finite, non-negative value.
func amount(v gjson.Result) float64 {
	f, ok := number(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

// maxCount bounds day counts and day numbers. Larger values are treated as
// unparseable rather than overflowing int.
const maxCount = math.MaxInt32

// integer is amount truncated to an int in [0, maxCount).
func integer(v gjson.Result) int {
	f := math.Trunc(amount(v))
	if f >= maxCount {
		return 0
	}
	return int(f)
}

func hasNumber(v gjson.Result) bool {
	_, ok := number(v)
	return ok
}

// text returns a trimmed string for string or number values.
func text(v gjson.Result) (string, bool) {
	switch v.Type {
	case gjson.String:
		s := strings.TrimSpace(v.Str)
		return s, s != ""
	case gjson.Number:
		return v.Raw, true
	default:
		return "", false
	}
}

func hasText(v gjson.Result) bool {
	_, ok := text(v)
	return ok
}

func isArray(v gjson.Result) bool  { return v.IsArray() }
func isObject(v gjson.Result) bool { return v.IsObject() }

// pick returns the value of the first alias that holds a usable value.
func pick(obj gjson.Result, aliases []string, usable func(gjson.Result) bool) (gjson.Result, bool) {
	for _, key := range aliases {
		v := obj.Get(gjson.Escape(key))
		if v.Exists() && usable(v) {
			return v, true
		}
	}
	return gjson.Result{}, false
}

func pickText(obj gjson.Result, aliases ...string) string {
	v, ok := pick(obj, aliases, hasText)
	if !ok {
		return ""
	}
	s, _ := text(v)
	return s
}

func pickAmount(obj gjson.Result, aliases ...string) float64 {
	v, ok := pick(obj, aliases, hasNumber)
	if !ok {
		return 0
	}
	return amount(v)
}

// textList collects the usable strings of an array. Objects contribute their
// first textual field among textKeys. A plain string is split on commas when
// splitScalar is set.
func textList(v gjson.Result, splitScalar bool, textKeys ...string) []string {
	out := []string{}
	switch {
	case v.IsArray():
		for _, el := range v.Array() {
			if s, ok := text(el); ok {
				out = append(out, s)
				continue
			}
			if el.IsObject() {
				if s := pickText(el, textKeys...); s != "" {
					out = append(out, s)
				}
			}
		}
	case splitScalar && v.Type == gjson.String:
		for _, part := range strings.Split(v.Str, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
