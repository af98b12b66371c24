package engine

// Match finds the single variant whose attributes agree with the selection
// on every selected key. Matching is only attempted once every required
// group has a selection; a partial selection yields nil. At most one variant
// can match because attribute combinations are unique per catalog.
//
// A zero-stock variant is still returned: the display layer needs its
// identity for the stock banner, and the session is responsible for blocking
// commit in that case.
func (c *Catalog) Match(selections map[string]string) *Variant {
	if len(c.Variants) == 0 {
		return nil
	}
	if !c.SelectionComplete(selections) {
		return nil
	}

	for i := range c.Variants {
		v := &c.Variants[i]
		matched := true
		for name, value := range selections {
			if value == "" {
				continue
			}
			if v.Attributes[name] != value {
				matched = false
				break
			}
		}
		if matched {
			return v
		}
	}
	return nil
}

// SelectionComplete reports whether every required group has a non-empty
// selection.
func (c *Catalog) SelectionComplete(selections map[string]string) bool {
	for _, g := range c.Groups {
		if g.Required && selections[g.Name] == "" {
			return false
		}
	}
	return true
}
