package core

import "fmt"

// Catalog maps relation names to relations. It is populated once by
// NewCatalog and is read-only afterwards, so it can be shared freely.
type Catalog struct {
	relations map[string]*Relation
	names     []string
}

func NewCatalog(relations ...*Relation) (*Catalog, error) {
	catalog := &Catalog{
		relations: make(map[string]*Relation, len(relations)),
		names:     make([]string, 0, len(relations)),
	}
	for _, relation := range relations {
		if _, exists := catalog.relations[relation.Name]; exists {
			return nil, fmt.Errorf("duplicate relation %q", relation.Name)
		}
		catalog.relations[relation.Name] = relation
		catalog.names = append(catalog.names, relation.Name)
	}
	return catalog, nil
}

// Lookup returns the named relation or an *UnknownRelationError.
func (c *Catalog) Lookup(name string) (*Relation, error) {
	relation, ok := c.relations[name]
	if !ok {
		return nil, &UnknownRelationError{Name: name}
	}
	return relation, nil
}

// Names lists relation names in definition order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.names))
	copy(names, c.names)
	return names
}

func (c *Catalog) Len() int {
	return len(c.names)
}
