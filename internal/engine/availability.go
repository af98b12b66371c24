package engine

// Available reports whether candidateValue in groupName remains choosable
// given the current, possibly partial, selection.
//
// The check is optimistic: unselected groups act as wildcards, so a value
// stays available as long as at least one in-stock variant is compatible
// with some completion of the selection. A product with no variant table at
// all falls through to the option's own out-of-stock flag; when variants do
// exist, that flag still wins as a manual override.
func (c *Catalog) Available(selections map[string]string, groupName, candidateValue string) bool {
	g := c.group(groupName)
	if g == nil {
		return false
	}
	opt := g.option(candidateValue)
	if opt == nil {
		return false
	}
	if opt.OutOfStock {
		return false
	}
	if len(c.Variants) == 0 {
		return true
	}

	for _, v := range c.index[indexKey(groupName, candidateValue)] {
		if v.StockCount <= 0 {
			continue
		}
		compatible := true
		for name, value := range selections {
			if name == groupName || value == "" {
				continue
			}
			if v.Attributes[name] != value {
				compatible = false
				break
			}
		}
		if compatible {
			return true
		}
	}
	return false
}

// AvailabilityByOption evaluates every declared option value against the
// current selection, for rendering affordances (disabled swatches, greyed
// dropdown entries).
func (c *Catalog) AvailabilityByOption(selections map[string]string) map[string]map[string]bool {
	out := make(map[string]map[string]bool, len(c.Groups))
	for _, g := range c.Groups {
		values := make(map[string]bool, len(g.Options))
		for _, opt := range g.Options {
			values[opt.Value] = c.Available(selections, g.Name, opt.Value)
		}
		out[g.Name] = values
	}
	return out
}
