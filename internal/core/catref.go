package core

import (
	"bytes"
	"encoding/json"
)

// RefKind tags the shape a category reference arrived in.
type RefKind int

const (
	// RefNone marks an absent or null reference.
	RefNone RefKind = iota
	// RefID is a bare identifier string.
	RefID
	// RefEmbedded is a full category object embedded at read time.
	RefEmbedded
	// RefLegacy is the old cross-database wrapper carrying the identifier
	// under the "$oid" key.
	RefLegacy
)

// CategoryRef is the polymorphic category reference attached to transactions
// and budgets. The origin data stores it as a bare id string, an embedded
// category object, or a legacy {"$oid": "..."} wrapper; normalization happens
// in exactly one place (Resolve) so downstream code only ever sees Category.
type CategoryRef struct {
	kind     RefKind
	id       string
	embedded Category
}

// CategoryID builds a bare-identifier reference.
func CategoryID(id string) CategoryRef {
	if id == "" {
		return CategoryRef{}
	}
	return CategoryRef{kind: RefID, id: id}
}

// EmbeddedCategory builds an already-resolved reference.
func EmbeddedCategory(c Category) CategoryRef {
	return CategoryRef{kind: RefEmbedded, embedded: c}
}

// LegacyCategoryRef builds a reference in the legacy "$oid" wrapper shape.
func LegacyCategoryRef(oid string) CategoryRef {
	if oid == "" {
		return CategoryRef{}
	}
	return CategoryRef{kind: RefLegacy, id: oid}
}

func (r CategoryRef) Kind() RefKind { return r.kind }

// IsZero reports whether the reference is absent.
func (r CategoryRef) IsZero() bool { return r.kind == RefNone }

// RawID returns the identifier carried by the reference without any lookup:
// the id itself for bare and legacy refs, the embedded record's id otherwise.
// Empty for absent references.
func (r CategoryRef) RawID() string {
	switch r.kind {
	case RefID, RefLegacy:
		return r.id
	case RefEmbedded:
		return r.embedded.ID
	default:
		return ""
	}
}

// CategorySet is an id-indexed snapshot of the category collection.
type CategorySet struct {
	byID    map[string]Category
	ordered []Category
}

// NewCategorySet indexes a category collection. Later duplicates of an id
// are ignored; the first record wins.
func NewCategorySet(cats []Category) CategorySet {
	s := CategorySet{
		byID:    make(map[string]Category, len(cats)),
		ordered: make([]Category, 0, len(cats)),
	}
	for _, c := range cats {
		if _, dup := s.byID[c.ID]; dup {
			continue
		}
		s.byID[c.ID] = c
		s.ordered = append(s.ordered, c)
	}
	return s
}

// Lookup returns the category with the given id.
func (s CategorySet) Lookup(id string) (Category, bool) {
	c, ok := s.byID[id]
	return c, ok
}

// All returns the categories in collection order.
func (s CategorySet) All() []Category {
	return s.ordered
}

func (s CategorySet) Len() int { return len(s.ordered) }

// Resolve normalizes the reference into a concrete category record.
//
// Absent references and lookup misses return ok=false; that is a normal,
// silent outcome (the category may have been deleted), never an error.
// Embedded objects are returned as-is without a lookup.
func (r CategoryRef) Resolve(set CategorySet) (Category, bool) {
	switch r.kind {
	case RefEmbedded:
		return r.embedded, true
	case RefID, RefLegacy:
		return set.Lookup(r.id)
	default:
		return Category{}, false
	}
}

// ResolvedID is the identifier both sides of a category join agree on: the
// resolved record's id when the reference resolves, the raw carried id
// otherwise. Empty only for absent references.
func (r CategoryRef) ResolvedID(set CategorySet) string {
	if c, ok := r.Resolve(set); ok {
		return c.ID
	}
	return r.RawID()
}

func (r CategoryRef) MarshalJSON() ([]byte, error) {
	switch r.kind {
	case RefID:
		return json.Marshal(r.id)
	case RefEmbedded:
		return json.Marshal(r.embedded)
	case RefLegacy:
		return json.Marshal(map[string]string{"$oid": r.id})
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON sniffs the three wire shapes. Anything unrecognized decodes
// to the absent reference instead of failing the whole record.
func (r *CategoryRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = CategoryRef{}
		return nil
	}

	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil || id == "" {
			*r = CategoryRef{}
			return nil
		}
		*r = CategoryRef{kind: RefID, id: id}
		return nil
	}

	if data[0] == '{' {
		var probe struct {
			ID   string `json:"_id"`
			Name string `json:"name"`
			OID  string `json:"$oid"`
		}
		if err := json.Unmarshal(data, &probe); err != nil {
			*r = CategoryRef{}
			return nil
		}
		if probe.ID != "" || probe.Name != "" {
			var cat Category
			if err := json.Unmarshal(data, &cat); err != nil {
				*r = CategoryRef{}
				return nil
			}
			*r = CategoryRef{kind: RefEmbedded, embedded: cat}
			return nil
		}
		if probe.OID != "" {
			*r = CategoryRef{kind: RefLegacy, id: probe.OID}
			return nil
		}
	}

	*r = CategoryRef{}
	return nil
}
