package model

// Domain is a search filter in the backend's own prefix notation: leaves of the form
// [field, operator, value] combined with "&", "|" and "!". It is sent as is.
type Domain []any

// Leaf builds one [field, operator, value] condition.
func Leaf(field, op string, value any) []any {
	return []any{field, op, value}
}

// And appends leaves to the domain; consecutive leaves are implicitly and-ed by the backend.
func (d Domain) And(leaves ...[]any) Domain {
	out := make(Domain, 0, len(d)+len(leaves))
	out = append(out, d...)
	for _, l := range leaves {
		out = append(out, l)
	}
	return out
}
