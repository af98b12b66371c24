package engine

import (
	"fmt"

	"github.com/google/uuid"
)

// View is the derived, read-only result of one recomputation: what the
// display layer renders and what commit is judged against.
type View struct {
	UnitPrice      int64
	MatchedVariant *Variant
	Availability   map[string]map[string]bool
	IsValid        bool
	Errors         ValidationErrors
}

// Commit is the resolved tuple handed to the cart collaborator after a
// successful commit.
type Commit struct {
	ProductID       string
	ConfigurationID uuid.UUID
	VariantID       *uuid.UUID
	Selections      map[string]string
	Answers         map[string]any
	UnitPrice       int64
	Quantity        int
	TotalPrice      int64
}

// Session holds the selection state of a single product-configuration
// interaction (one quick-view dialog, one product page). Each interaction
// owns its own Session; the catalog it reads from is immutable and may be
// shared. Every mutation synchronously recomputes the derived view, so the
// view is always consistent with the state and re-running a mutation with
// the same value changes nothing.
type Session struct {
	catalog    *Catalog
	selections map[string]string
	answers    map[string]any
	view       View
}

// NewSession creates a session over a validated catalog with an empty
// selection.
func NewSession(catalog *Catalog) *Session {
	s := &Session{
		catalog:    catalog,
		selections: map[string]string{},
		answers:    map[string]any{},
	}
	s.recompute()
	return s
}

// SetAttribute records a selection for a variation group. An empty value
// clears the group. Unknown groups and values are ignored rather than
// failing; the next Validate call reports what is still missing.
func (s *Session) SetAttribute(groupName, value string) {
	if g := s.catalog.group(groupName); g == nil {
		return
	} else if value != "" && g.option(value) == nil {
		return
	}
	// copy-on-write so earlier snapshots handed out by Selections stay valid
	next := make(map[string]string, len(s.selections)+1)
	for k, v := range s.selections {
		next[k] = v
	}
	if value == "" {
		delete(next, groupName)
	} else {
		next[groupName] = value
	}
	s.selections = next
	s.recompute()
}

// SetCustomAnswer records an answer for a custom option. A nil value clears
// the answer. Unknown option ids are ignored.
func (s *Session) SetCustomAnswer(optionID string, value any) {
	if s.catalog.optionDef(optionID) == nil {
		return
	}
	next := make(map[string]any, len(s.answers)+1)
	for k, v := range s.answers {
		next[k] = v
	}
	if value == nil {
		delete(next, optionID)
	} else {
		next[optionID] = value
	}
	s.answers = next
	s.recompute()
}

// Selections returns the current attribute selections snapshot.
func (s *Session) Selections() map[string]string {
	return s.selections
}

// Answers returns the current custom answers snapshot.
func (s *Session) Answers() map[string]any {
	return s.answers
}

// View returns the derived view of the current state.
func (s *Session) View() View {
	return s.view
}

// UnitPrice returns the resolved price of a single unit in minor units.
func (s *Session) UnitPrice() int64 {
	return s.view.UnitPrice
}

// TotalPrice returns the quantity-scaled price. Quantity is owned by the
// caller, not the session.
func (s *Session) TotalPrice(quantity int) int64 {
	if quantity < 1 {
		quantity = 1
	}
	return s.view.UnitPrice * int64(quantity)
}

// Validate returns the accumulated validation problems of the current state,
// or nil when the selection is complete and answerable.
func (s *Session) Validate() ValidationErrors {
	if len(s.view.Errors) == 0 {
		return nil
	}
	return s.view.Errors
}

// Commit finalizes the selection. From an incomplete or unpurchasable state
// it fails with the full ValidationErrors list; from a complete state it
// returns the resolved tuple for the cart collaborator.
func (s *Session) Commit(quantity int) (*Commit, error) {
	if errs := s.Validate(); errs != nil {
		return nil, errs
	}
	if quantity < 1 {
		quantity = 1
	}

	commit := &Commit{
		ProductID:       s.catalog.ProductID,
		ConfigurationID: s.catalog.ConfigurationID,
		Selections:      s.selections,
		Answers:         s.answers,
		UnitPrice:       s.view.UnitPrice,
		Quantity:        quantity,
		TotalPrice:      s.view.UnitPrice * int64(quantity),
	}
	if s.view.MatchedVariant != nil {
		id := s.view.MatchedVariant.ID
		commit.VariantID = &id
	}
	return commit, nil
}

// recompute rebuilds the derived view from the current state: variant match
// first, then per-option availability, then price, then the validation list.
// The whole pass is pure and cheap enough to run on every keystroke.
func (s *Session) recompute() {
	c := s.catalog

	matched := c.Match(s.selections)
	availability := c.AvailabilityByOption(s.selections)

	unit := c.BasePrice
	if matched != nil && matched.HasOverride {
		unit += matched.PriceOverride
	}
	for name, value := range s.selections {
		if g := c.group(name); g != nil {
			if opt := g.option(value); opt != nil {
				unit += opt.PriceModifier
			}
		}
	}
	unit += c.PriceDelta(s.answers)

	var errs ValidationErrors
	for _, g := range c.Groups {
		if g.Required && s.selections[g.Name] == "" {
			errs = append(errs, FieldError{
				Code:    CodeMissingRequiredAttribute,
				Field:   g.Name,
				Message: fmt.Sprintf("select a %s", g.Name),
			})
		}
	}
	errs = append(errs, c.ValidateAnswers(s.answers)...)

	if c.SelectionComplete(s.selections) {
		if len(c.Variants) > 0 {
			switch {
			case matched == nil:
				errs = append(errs, FieldError{
					Code:    CodeNoMatchingVariant,
					Field:   "selection",
					Message: "this combination is not available",
				})
			case matched.StockCount <= 0:
				errs = append(errs, FieldError{
					Code:    CodeNoMatchingVariant,
					Field:   "selection",
					Message: "this combination is out of stock",
				})
			}
		}
		for name, value := range s.selections {
			if g := c.group(name); g != nil {
				if opt := g.option(value); opt != nil && opt.OutOfStock {
					errs = append(errs, FieldError{
						Code:    CodeOptionOutOfStock,
						Field:   name,
						Message: fmt.Sprintf("%s %s is out of stock", name, opt.Label),
					})
				}
			}
		}
	}

	s.view = View{
		UnitPrice:      unit,
		MatchedVariant: matched,
		Availability:   availability,
		IsValid:        len(errs) == 0,
		Errors:         errs,
	}
}
