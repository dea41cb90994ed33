// Package validate checks request structs against `validate` struct tags.
//
// Rules (comma separated):
//
//	required        not zero / not blank / non-nil
//	nullable        skip the remaining rules when the field is empty
//	email           looks like an e-mail address
//	min=N, max=N    numbers: value bounds; strings: rune length; slices: length
//	gt=N, gte=N     numeric lower bounds
//	in=a,b,c        value is one of the listed items
//
// Numeric rules understand decimal.Decimal as well as Go numbers. Pointer
// fields are dereferenced; a nil pointer is empty.
package validate

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var decimalType = reflect.TypeOf(decimal.Decimal{})

// Struct validates the tagged fields of v and returns field -> message.
// Only the first failing rule of each field is reported.
func Struct(v interface{}) map[string]string {
	errs := make(map[string]string)

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return errs
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return errs
	}
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		tag := field.Tag.Get("validate")
		if tag == "" || !field.IsExported() {
			continue
		}

		name := jsonFieldName(field)
		value := rv.Field(i)
		rules := splitRules(tag)

		if hasRule(rules, "nullable") && isEmpty(value) {
			continue
		}

		for _, rule := range rules {
			if rule == "nullable" {
				continue
			}
			if msg := applyRule(rule, name, value); msg != "" {
				errs[name] = msg
				break
			}
		}
	}

	return errs
}

// HasErrors reports whether errs holds at least one failure.
func HasErrors(errs map[string]string) bool { return len(errs) > 0 }

func applyRule(rule, field string, v reflect.Value) string {
	key, param, _ := strings.Cut(rule, "=")

	if key == "required" {
		if isEmpty(v) {
			return fmt.Sprintf("The %s field is required.", field)
		}
		return ""
	}

	v = deref(v)
	if !v.IsValid() {
		return ""
	}
	raw := fmt.Sprintf("%v", v.Interface())

	switch key {
	case "email":
		if !emailRE.MatchString(raw) {
			return fmt.Sprintf("The %s must be a valid email address.", field)
		}
	case "min":
		n := parseFloat(param)
		if got, numeric := measure(v, raw); numeric && got < n {
			return fmt.Sprintf("The %s must be at least %s.", field, param)
		} else if !numeric && got < n {
			return fmt.Sprintf("The %s must be at least %s characters.", field, param)
		}
	case "max":
		n := parseFloat(param)
		if got, numeric := measure(v, raw); numeric && got > n {
			return fmt.Sprintf("The %s must not be greater than %s.", field, param)
		} else if !numeric && got > n {
			return fmt.Sprintf("The %s must not exceed %s characters.", field, param)
		}
	case "gt":
		if f, ok := toFloat(v); !ok || f <= parseFloat(param) {
			return fmt.Sprintf("The %s must be greater than %s.", field, param)
		}
	case "gte":
		if f, ok := toFloat(v); !ok || f < parseFloat(param) {
			return fmt.Sprintf("The %s must be greater than or equal to %s.", field, param)
		}
	case "in":
		for _, a := range strings.Split(param, ",") {
			if raw == strings.TrimSpace(a) {
				return ""
			}
		}
		return fmt.Sprintf("The selected %s is invalid.", field)
	}

	return ""
}

var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func deref(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Bool:
		return false
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	}
	return false
}

// measure returns the value compared by min/max and whether it is numeric.
func measure(v reflect.Value, raw string) (float64, bool) {
	if f, ok := toFloat(v); ok {
		return f, true
	}
	switch v.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return float64(v.Len()), false
	}
	return float64(len([]rune(raw))), false
}

func toFloat(v reflect.Value) (float64, bool) {
	if v.Type() == decimalType {
		return v.Interface().(decimal.Decimal).InexactFloat64(), true
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	}
	return 0, false
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

func jsonFieldName(f reflect.StructField) string {
	name := f.Tag.Get("json")
	if name == "" || name == "-" {
		return strings.ToLower(f.Name)
	}
	if idx := strings.Index(name, ","); idx != -1 {
		name = name[:idx]
	}
	return name
}

// splitRules splits a tag on commas, except the ones inside an in= list:
// "required,in=cash,card,pix,max=3" -> ["required", "in=cash,card,pix", "max=3"].
func splitRules(tag string) []string {
	var rules []string
	parts := strings.Split(tag, ",")
	for i := 0; i < len(parts); i++ {
		part := strings.TrimSpace(parts[i])
		if strings.HasPrefix(part, "in=") {
			for i+1 < len(parts) && !isRuleName(parts[i+1]) {
				i++
				part += "," + strings.TrimSpace(parts[i])
			}
		}
		if part != "" {
			rules = append(rules, part)
		}
	}
	return rules
}

func isRuleName(s string) bool {
	key, _, _ := strings.Cut(strings.TrimSpace(s), "=")
	switch key {
	case "required", "nullable", "email", "min", "max", "gt", "gte", "in":
		return strings.Contains(s, "=") || key == "required" || key == "nullable" || key == "email"
	}
	return false
}

func hasRule(rules []string, target string) bool {
	for _, r := range rules {
		if r == target {
			return true
		}
	}
	return false
}
