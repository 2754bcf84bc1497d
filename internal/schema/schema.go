// Package schema describes the entity tables that can be soft-deleted: their
// columns, foreign keys and how an archived row of each one is presented.
package schema

import "strings"

// OriginKind names an entity table a trash entry can come from.
type OriginKind string

const (
	Products    OriginKind = "products"
	Accounts    OriginKind = "accounts"
	Profiles    OriginKind = "profiles"
	Customers   OriginKind = "customers"
	Sales       OriginKind = "sales"
	Users       OriginKind = "users"
	Subscribers OriginKind = "subscribers"
	PriceLists  OriginKind = "price_lists"
)

// Kind is the storage shape of a column as far as restore needs to know.
type Kind string

const (
	KindText      Kind = "text"
	KindDecimal   Kind = "decimal"
	KindInteger   Kind = "integer"
	KindIntArray  Kind = "integer_array"
	KindTimestamp Kind = "timestamp"
)

// Column is one column of an origin table. Rules is a validator tag applied
// to non-nil values after coercion.
type Column struct {
	Name     string
	Kind     Kind
	Required bool
	Rules    string
}

type ForeignKey struct {
	Column string
	Table  string
}

// Dependent is a column in another origin table that references this one.
type Dependent struct {
	Origin OriginKind
	Column string
}

type Origin struct {
	Kind        OriginKind
	DisplayName string
	Singular    string
	Feminine    bool // grammatical gender of Singular
	LabelField  string
	PrimaryKey  string
	Columns     []Column
	ForeignKeys []ForeignKey
}

func (o *Origin) Table() string {
	return string(o.Kind)
}

func (o *Origin) Column(name string) (Column, bool) {
	for _, col := range o.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return Column{}, false
}

// Label derives a human-readable title for an archived row, falling back to
// "<Singular> #<id>" when the origin has no natural name or the field is empty.
func (o *Origin) Label(originID string, payload map[string]any) string {
	if o.LabelField != "" {
		if value, ok := payload[o.LabelField].(string); ok && strings.TrimSpace(value) != "" {
			return value
		}
	}
	return o.Singular + " #" + originID
}

// Inflect adapts a masculine Spanish participle ("restaurado") to the
// gender of Singular.
func (o *Origin) Inflect(participle string) string {
	if o.Feminine && strings.HasSuffix(participle, "o") {
		return strings.TrimSuffix(participle, "o") + "a"
	}
	return participle
}
