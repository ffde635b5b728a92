package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CategoryRef is a product's link to its category: either an embedded snapshot
// of the category or just its identifier. The zero value references nothing.
type CategoryRef struct {
	id       string
	snapshot *Category
}

func RefByID(id string) CategoryRef {
	return CategoryRef{id: id}
}

func RefTo(c Category) CategoryRef {
	return CategoryRef{id: c.ID, snapshot: &c}
}

func (r CategoryRef) ID() string {
	return r.id
}

// Name is the embedded category name, or "" for id-only references.
func (r CategoryRef) Name() string {
	if r.snapshot == nil {
		return ""
	}
	return r.snapshot.Name
}

func (r CategoryRef) IsZero() bool {
	return r.id == "" && r.snapshot == nil
}

func (r CategoryRef) MarshalJSON() ([]byte, error) {
	switch {
	case r.snapshot != nil:
		return json.Marshal(r.snapshot)
	case r.id != "":
		return json.Marshal(r.id)
	default:
		return []byte("null"), nil
	}
}

func (r *CategoryRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*r = CategoryRef{}

	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		return nil
	case data[0] == '{':
		var c Category
		if err := json.Unmarshal(data, &c); err != nil {
			return fmt.Errorf("category: %w", err)
		}
		*r = RefTo(c)
	case data[0] == '"':
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return fmt.Errorf("category id: %w", err)
		}
		*r = RefByID(id)
	default:
		// numeric ids from backends with integer keys
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("category reference: %w", err)
		}
		*r = RefByID(n.String())
	}
	return nil
}
