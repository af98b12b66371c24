package engine

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"configurator-service/internal/models"
)

// answered reports whether a raw answer qualifies for the given definition.
// A checkbox is answered only by boolean true; everything else is answered
// by any value whose string form is non-empty.
func answered(def *OptionDef, raw any) bool {
	if raw == nil {
		return false
	}
	if def.Kind == models.CustomOptionKindCheckbox {
		b, ok := raw.(bool)
		return ok && b
	}
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		return strings.TrimSpace(v) != ""
	case float64, float32, int, int64:
		return true
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v)) != ""
	}
}

func answerString(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

func answerNumber(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// ValidateAnswers checks every custom option definition against the supplied
// answers and collects all failures instead of stopping at the first, so the
// caller can surface every missing field at once.
func (c *Catalog) ValidateAnswers(answers map[string]any) ValidationErrors {
	var errs ValidationErrors
	for i := range c.OptionDefs {
		def := &c.OptionDefs[i]
		raw, present := answers[def.ID]
		if !present || !answered(def, raw) {
			if def.Required {
				errs = append(errs, FieldError{
					Code:    CodeMissingRequiredCustomOption,
					Field:   def.Name,
					Message: fmt.Sprintf("%s is required", def.Name),
				})
			}
			continue
		}

		switch def.Kind {
		case models.CustomOptionKindNumber:
			n, ok := answerNumber(raw)
			if !ok {
				errs = append(errs, FieldError{
					Code:    CodeInvalidCustomOptionValue,
					Field:   def.Name,
					Message: fmt.Sprintf("%s must be a number", def.Name),
				})
				continue
			}
			if def.MinValue != nil && n < *def.MinValue {
				errs = append(errs, FieldError{
					Code:    CodeInvalidCustomOptionValue,
					Field:   def.Name,
					Message: fmt.Sprintf("%s must be at least %g", def.Name, *def.MinValue),
				})
			}
			if def.MaxValue != nil && n > *def.MaxValue {
				errs = append(errs, FieldError{
					Code:    CodeInvalidCustomOptionValue,
					Field:   def.Name,
					Message: fmt.Sprintf("%s must be at most %g", def.Name, *def.MaxValue),
				})
			}
		case models.CustomOptionKindText, models.CustomOptionKindTextarea:
			if def.MaxLength != nil && utf8.RuneCountInString(answerString(raw)) > *def.MaxLength {
				errs = append(errs, FieldError{
					Code:    CodeInvalidCustomOptionValue,
					Field:   def.Name,
					Message: fmt.Sprintf("%s must be at most %d characters", def.Name, *def.MaxLength),
				})
			}
		}
	}
	return errs
}

// PriceDelta sums the price effects of all answered custom options in minor
// units. Each answered option contributes its flat modifier; a select option
// additionally contributes the price of the chosen entry, and a checked
// checkbox contributes the price of its first choice. Unanswered optional
// fields contribute zero, and no cross-option interaction exists, so the
// delta of a set of answers is the sum of the deltas of each answer alone.
func (c *Catalog) PriceDelta(answers map[string]any) int64 {
	var total int64
	for i := range c.OptionDefs {
		def := &c.OptionDefs[i]
		raw, present := answers[def.ID]
		if !present || !answered(def, raw) {
			continue
		}
		total += def.PriceModifier
		switch def.Kind {
		case models.CustomOptionKindSelect:
			chosen := answerString(raw)
			for _, choice := range def.Choices {
				if choice.Value == chosen {
					total += choice.Price
					break
				}
			}
		case models.CustomOptionKindCheckbox:
			if len(def.Choices) > 0 {
				total += def.Choices[0].Price
			}
		}
	}
	return total
}
