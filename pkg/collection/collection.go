// Package collection has the few generic slice helpers the views share.
//
//	names := collection.Strings(allowedStatuses)
//	low := collection.Filter(products, func(p models.Product) bool { return p.Stock <= 5 })
package collection

// Map transforms each element of s using fn.
func Map[T, R any](s []T, fn func(T) R) []R {
	out := make([]R, len(s))
	for i, v := range s {
		out[i] = fn(v)
	}
	return out
}

// Filter keeps the elements for which fn is true. The result is never nil,
// so it encodes as [] rather than null.
func Filter[T any](s []T, fn func(T) bool) []T {
	out := make([]T, 0, len(s))
	for _, v := range s {
		if fn(v) {
			out = append(out, v)
		}
	}
	return out
}

// Strings converts a slice of a string-based type.
func Strings[T ~string](s []T) []string {
	return Map(s, func(v T) string { return string(v) })
}
