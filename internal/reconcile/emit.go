package reconcile

import (
	"github.com/lherron/clashsync/internal/conflicts"
	"github.com/lherron/clashsync/internal/domain"
)

// Update is one partial update for one entity. Fields holds only the
// conflict lists being written; each list is the full set for that field.
type Update struct {
	Entity domain.Identity                            `json:"entity" yaml:"entity"`
	Kind   domain.EntityKind                          `json:"kind" yaml:"kind"`
	Fields map[domain.ConflictField][]domain.Identity `json:"fields" yaml:"fields"`

	// Before holds the remote lists the fields replace, for previews.
	Before map[domain.ConflictField][]domain.Identity `json:"-" yaml:"-"`
}

// Emit turns the accumulator into partial updates, ordered by entity.
//
// Unresolved identities are dropped and empty lists are omitted, so an
// update never clears a field. An entity with nothing left to send gets no
// update. Unless full is set, only fields that gained an identity during
// the run are sent, which makes a repeated run emit nothing.
func Emit(acc *conflicts.Accumulator, full bool) []Update {
	var updates []Update
	for _, owner := range acc.Owners() {
		c, _ := acc.Get(owner)

		fields := make(map[domain.ConflictField][]domain.Identity)
		before := make(map[domain.ConflictField][]domain.Identity)
		for _, field := range c.Fields() {
			if !full && !c.Changed(field) {
				continue
			}
			list := c.List(field)
			if len(list) == 0 {
				continue
			}
			fields[field] = list
			before[field] = c.Seeded(field)
		}
		if len(fields) == 0 {
			continue
		}

		updates = append(updates, Update{
			Entity: owner,
			Kind:   c.Kind,
			Fields: fields,
			Before: before,
		})
	}
	return updates
}
