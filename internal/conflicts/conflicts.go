// Package conflicts holds the in-memory conflict graph that a run
// reconciles: for each adjudicator and team, a set of conflicting
// identities per conflict field.
//
// Collections are seeded from the entity's existing remote state and only
// ever grow. Adding an identity that is already present is a no-op.
package conflicts

import (
	"errors"
	"fmt"
	"sort"

	"github.com/lherron/clashsync/internal/domain"
)

var (
	// ErrUnknownOwner is returned when adding to an entity that was never seeded
	ErrUnknownOwner = errors.New("unknown conflict owner")

	// ErrFieldNotHeld is returned when the owner's kind has no such conflict field
	ErrFieldNotHeld = errors.New("conflict field not held by owner")
)

// Set is a set of identities.
type Set map[domain.Identity]struct{}

// Collection is the conflict state of one entity.
type Collection struct {
	Owner domain.Identity
	Kind  domain.EntityKind

	sets    map[domain.ConflictField]Set
	seeded  map[domain.ConflictField][]domain.Identity
	changed map[domain.ConflictField]bool
}

func newCollection(s domain.Snapshot) *Collection {
	c := &Collection{
		Owner:   s.Identity,
		Kind:    s.Kind,
		sets:    make(map[domain.ConflictField]Set),
		seeded:  make(map[domain.ConflictField][]domain.Identity),
		changed: make(map[domain.ConflictField]bool),
	}
	for _, field := range domain.FieldsFor(s.Kind) {
		set := make(Set)
		for _, id := range s.Conflicts[field] {
			set[id] = struct{}{}
		}
		c.sets[field] = set
		c.seeded[field] = filtered(set)
	}
	return c
}

// Contains reports whether id is in the field's set.
func (c *Collection) Contains(field domain.ConflictField, id domain.Identity) bool {
	_, ok := c.sets[field][id]
	return ok
}

// List returns the field's identities sorted, without unresolved entries.
func (c *Collection) List(field domain.ConflictField) []domain.Identity {
	return filtered(c.sets[field])
}

// Seeded returns the field's identities as they were before any additions,
// sorted and without unresolved entries.
func (c *Collection) Seeded(field domain.ConflictField) []domain.Identity {
	out := make([]domain.Identity, len(c.seeded[field]))
	copy(out, c.seeded[field])
	return out
}

// Changed reports whether the field gained an identity since seeding.
func (c *Collection) Changed(field domain.ConflictField) bool {
	return c.changed[field]
}

// Touched reports whether any field gained an identity since seeding.
func (c *Collection) Touched() bool {
	for _, changed := range c.changed {
		if changed {
			return true
		}
	}
	return false
}

// Fields returns the conflict fields this collection holds.
func (c *Collection) Fields() []domain.ConflictField {
	return domain.FieldsFor(c.Kind)
}

// Accumulator is the mutable store of collections keyed by owner identity.
type Accumulator struct {
	owners map[domain.Identity]*Collection
}

// New returns an empty accumulator.
func New() *Accumulator {
	return &Accumulator{owners: make(map[domain.Identity]*Collection)}
}

// Seed registers the snapshot's entity with its existing conflicts.
// Kinds that hold no conflict fields and snapshots without an identity are
// ignored. Seeding an owner twice replaces the earlier collection.
func (a *Accumulator) Seed(snaps ...domain.Snapshot) {
	for _, s := range snaps {
		if s.Identity.IsZero() || len(domain.FieldsFor(s.Kind)) == 0 {
			continue
		}
		a.owners[s.Identity] = newCollection(s)
	}
}

// AddConflict adds conflict to owner's field set. It reports whether the
// set grew. Adding an unresolved identity is a no-op.
func (a *Accumulator) AddConflict(owner domain.Identity, field domain.ConflictField, conflict domain.Identity) (bool, error) {
	c, ok := a.owners[owner]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownOwner, owner)
	}
	set, ok := c.sets[field]
	if !ok {
		return false, fmt.Errorf("%w: %s has no %s", ErrFieldNotHeld, owner, field)
	}
	if conflict.IsZero() {
		return false, nil
	}
	if _, exists := set[conflict]; exists {
		return false, nil
	}
	set[conflict] = struct{}{}
	c.changed[field] = true
	return true, nil
}

// Get returns the collection for owner.
func (a *Accumulator) Get(owner domain.Identity) (*Collection, bool) {
	c, ok := a.owners[owner]
	return c, ok
}

// Owners returns every seeded owner identity, sorted.
func (a *Accumulator) Owners() []domain.Identity {
	ids := make([]domain.Identity, 0, len(a.owners))
	for id := range a.owners {
		ids = append(ids, id)
	}
	return domain.SortIdentities(ids)
}

// Len returns the number of seeded owners.
func (a *Accumulator) Len() int {
	return len(a.owners)
}

func filtered(set Set) []domain.Identity {
	out := make([]domain.Identity, 0, len(set))
	for id := range set {
		if id.IsZero() {
			continue
		}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
