package engine

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"configurator-service/internal/models"
)

// Option is one selectable value within a variation group.
type Option struct {
	Value         string
	Label         string
	OutOfStock    bool
	PriceModifier int64
}

// Group is one named axis of product variation. Option order is display
// order and otherwise not significant.
type Group struct {
	ID       string
	Name     string
	Required bool
	Options  []Option

	byValue map[string]*Option
}

func (g *Group) option(value string) *Option {
	return g.byValue[value]
}

// Variant is a concrete stocked SKU identified by one attribute value per
// required group.
type Variant struct {
	ID            uuid.UUID
	SKU           string
	Attributes    map[string]string
	StockCount    int
	PriceOverride int64
	HasOverride   bool
}

// Choice is one entry of a select option's choice list.
type Choice struct {
	Value string
	Label string
	Price int64
}

// OptionDef describes a per-order customization field.
type OptionDef struct {
	ID            string
	Name          string
	Kind          models.CustomOptionKind
	Required      bool
	PriceModifier int64
	Choices       []Choice
	MinValue      *float64
	MaxValue      *float64
	MaxLength     *int
}

// Catalog is the validated, indexed variation and customization space of a
// single product. It is immutable once built and safe to share across
// sessions.
type Catalog struct {
	ConfigurationID uuid.UUID
	ProductID       string
	BasePrice       int64
	CurrencyCode    *string
	Groups          []Group
	OptionDefs      []OptionDef
	Variants        []Variant

	groupsByName map[string]*Group
	defsByID     map[string]*OptionDef
	// variant buckets keyed by (group, value); rebuilt only when the catalog
	// itself is rebuilt, not on selection changes
	index map[string][]*Variant
}

// AttributeKey returns the canonical form of a variant attribute map. Two
// variants with equal attribute maps produce equal keys, which is how the
// combination-uniqueness invariant is checked here and hashed at the storage
// layer.
func AttributeKey(attrs map[string]string) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(attrs[k])
	}
	return b.String()
}

func indexKey(group, value string) string {
	return group + "\x00" + value
}

// BuildCatalog validates a stored product configuration and converts it into
// the engine's value types. It fails with InvalidCatalogError on duplicate
// variant combinations, variant attributes referencing undeclared groups or
// values, variants missing a required group, and negative custom option
// price modifiers.
func BuildCatalog(cfg *models.ProductConfiguration) (*Catalog, error) {
	basePrice, err := ParseAmount(cfg.BasePrice)
	if err != nil {
		return nil, invalidCatalogf("base price: %v", err)
	}

	c := &Catalog{
		ConfigurationID: cfg.ID,
		ProductID:       cfg.ProductID,
		BasePrice:       basePrice,
		CurrencyCode:    cfg.CurrencyCode,
		groupsByName:    make(map[string]*Group),
		defsByID:        make(map[string]*OptionDef),
		index:           make(map[string][]*Variant),
	}

	c.Groups = make([]Group, 0, len(cfg.Groups))
	for _, mg := range cfg.Groups {
		if _, dup := c.groupsByName[mg.Name]; dup {
			return nil, invalidCatalogf("duplicate variation group %q", mg.Name)
		}
		g := Group{
			ID:       mg.ID,
			Name:     mg.Name,
			Required: mg.Required,
			Options:  make([]Option, 0, len(mg.Options)),
			byValue:  make(map[string]*Option),
		}
		for _, mo := range mg.Options {
			if _, dup := g.byValue[mo.Value]; dup {
				return nil, invalidCatalogf("duplicate option value %q in group %q", mo.Value, mg.Name)
			}
			modifier, err := parseOptionalAmount(mo.PriceModifier)
			if err != nil {
				return nil, invalidCatalogf("group %q option %q: %v", mg.Name, mo.Value, err)
			}
			g.Options = append(g.Options, Option{
				Value:         mo.Value,
				Label:         mo.Label,
				OutOfStock:    mo.OutOfStock,
				PriceModifier: modifier,
			})
		}
		for i := range g.Options {
			g.byValue[g.Options[i].Value] = &g.Options[i]
		}
		c.Groups = append(c.Groups, g)
	}
	for i := range c.Groups {
		c.groupsByName[c.Groups[i].Name] = &c.Groups[i]
	}

	c.OptionDefs = make([]OptionDef, 0, len(cfg.CustomOptions))
	for _, md := range cfg.CustomOptions {
		if _, dup := c.defsByID[md.ID]; dup {
			return nil, invalidCatalogf("duplicate custom option id %q", md.ID)
		}
		modifier, err := parseOptionalAmount(md.PriceModifier)
		if err != nil {
			return nil, invalidCatalogf("custom option %q: %v", md.Name, err)
		}
		if modifier < 0 {
			return nil, invalidCatalogf("custom option %q has negative price modifier", md.Name)
		}
		def := OptionDef{
			ID:            md.ID,
			Name:          md.Name,
			Kind:          md.Kind,
			Required:      md.Required,
			PriceModifier: modifier,
			MinValue:      md.MinValue,
			MaxValue:      md.MaxValue,
			MaxLength:     md.MaxLength,
		}
		for _, mc := range md.Choices {
			price, err := parseOptionalAmount(mc.Price)
			if err != nil {
				return nil, invalidCatalogf("custom option %q choice %q: %v", md.Name, mc.Value, err)
			}
			if price < 0 {
				return nil, invalidCatalogf("custom option %q choice %q has negative price", md.Name, mc.Value)
			}
			def.Choices = append(def.Choices, Choice{Value: mc.Value, Label: mc.Label, Price: price})
		}
		c.OptionDefs = append(c.OptionDefs, def)
	}
	for i := range c.OptionDefs {
		c.defsByID[c.OptionDefs[i].ID] = &c.OptionDefs[i]
	}

	seen := make(map[string]bool, len(cfg.Variants))
	c.Variants = make([]Variant, 0, len(cfg.Variants))
	for _, mv := range cfg.Variants {
		attrs := mv.Attributes.Data()
		for name, value := range attrs {
			g, ok := c.groupsByName[name]
			if !ok {
				return nil, invalidCatalogf("variant %s references unknown group %q", mv.ID, name)
			}
			if g.option(value) == nil {
				return nil, invalidCatalogf("variant %s references unknown value %q in group %q", mv.ID, value, name)
			}
		}
		for _, g := range c.Groups {
			if g.Required {
				if _, ok := attrs[g.Name]; !ok {
					return nil, invalidCatalogf("variant %s is missing required group %q", mv.ID, g.Name)
				}
			}
		}
		key := AttributeKey(attrs)
		if seen[key] {
			return nil, invalidCatalogf("duplicate variant attribute combination %q", key)
		}
		seen[key] = true

		if mv.StockCount < 0 {
			return nil, invalidCatalogf("variant %s has negative stock count", mv.ID)
		}

		v := Variant{
			ID:         mv.ID,
			Attributes: attrs,
			StockCount: mv.StockCount,
		}
		if mv.SKU != nil {
			v.SKU = *mv.SKU
		}
		if mv.PriceOverride != nil && strings.TrimSpace(*mv.PriceOverride) != "" {
			override, err := ParseAmount(*mv.PriceOverride)
			if err != nil {
				return nil, invalidCatalogf("variant %s price override: %v", mv.ID, err)
			}
			v.PriceOverride = override
			v.HasOverride = true
		}
		c.Variants = append(c.Variants, v)
	}

	for i := range c.Variants {
		v := &c.Variants[i]
		for name, value := range v.Attributes {
			k := indexKey(name, value)
			c.index[k] = append(c.index[k], v)
		}
	}

	return c, nil
}

// RequiredGroups returns the names of all required variation groups.
func (c *Catalog) RequiredGroups() []string {
	names := make([]string, 0, len(c.Groups))
	for _, g := range c.Groups {
		if g.Required {
			names = append(names, g.Name)
		}
	}
	return names
}

func (c *Catalog) group(name string) *Group {
	return c.groupsByName[name]
}

func (c *Catalog) optionDef(id string) *OptionDef {
	return c.defsByID[id]
}
