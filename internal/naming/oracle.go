package naming

// Oracle tracks every name known to be taken while a plan is built. It
// starts from the document's universe of names and only grows.
type Oracle struct {
	taken map[string]struct{}
}

// NewOracle seeds an oracle with a copy of universe
func NewOracle(universe map[string]struct{}) *Oracle {
	taken := make(map[string]struct{}, len(universe))
	for name := range universe {
		taken[name] = struct{}{}
	}
	return &Oracle{taken: taken}
}

// Taken reports whether name is already in use
func (o *Oracle) Taken(name string) bool {
	_, ok := o.taken[name]
	return ok
}

// Claim marks name as taken. It reports false if the name was already taken.
func (o *Oracle) Claim(name string) bool {
	if o.Taken(name) {
		return false
	}
	o.taken[name] = struct{}{}
	return true
}

// Len returns the number of taken names
func (o *Oracle) Len() int {
	return len(o.taken)
}
