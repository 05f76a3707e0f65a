package auth

// Policy is a named claim requirement: the caller's Claim must equal one of
// Values.
type Policy struct {
	Name   string
	Claim  string
	Values []string
}

// MustLiveInBerlin guards the points-of-interest endpoints.
var MustLiveInBerlin = Policy{
	Name:   "MustLiveInBerlin",
	Claim:  "city",
	Values: []string{"Berlin"},
}

// Allows reports whether c satisfies the policy. Comparison is exact.
func (p Policy) Allows(c *Claims) bool {
	if c == nil {
		return false
	}
	v, ok := c.Value(p.Claim)
	if !ok {
		return false
	}
	for _, want := range p.Values {
		if v == want {
			return true
		}
	}
	return false
}
