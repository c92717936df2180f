// Package directory resolves display names to entity identities.
//
// A Directory is built once per run from the remote listings and is
// read-only afterwards. Names match exactly and case-sensitively. When two
// entities of the same kind share a name the later one wins; shadowed
// names are counted so callers can report them.
package directory

import (
	"sort"

	"github.com/lherron/clashsync/internal/domain"
)

// Directory maps display names to identities, one table per entity kind.
type Directory struct {
	names      map[domain.EntityKind]map[string]domain.Identity
	duplicates map[domain.EntityKind]map[string]int
}

// Build creates a directory from the three listings. A snapshot without an
// identity still takes its name, leaving that name unresolvable.
func Build(institutions, adjudicators, teams []domain.Snapshot) *Directory {
	d := &Directory{
		names:      make(map[domain.EntityKind]map[string]domain.Identity, len(domain.Kinds)),
		duplicates: make(map[domain.EntityKind]map[string]int),
	}
	d.index(domain.KindInstitution, institutions)
	d.index(domain.KindAdjudicator, adjudicators)
	d.index(domain.KindTeam, teams)
	return d
}

func (d *Directory) index(kind domain.EntityKind, snaps []domain.Snapshot) {
	table := make(map[string]domain.Identity, len(snaps))
	for _, s := range snaps {
		if _, seen := table[s.Name]; seen {
			if d.duplicates[kind] == nil {
				d.duplicates[kind] = make(map[string]int)
			}
			d.duplicates[kind][s.Name]++
		}
		table[s.Name] = s.Identity
	}
	d.names[kind] = table
}

// Lookup returns the identity registered under name for kind.
func (d *Directory) Lookup(kind domain.EntityKind, name string) (domain.Identity, bool) {
	id, ok := d.names[kind][name]
	if !ok || id.IsZero() {
		return "", false
	}
	return id, true
}

// Len returns the number of distinct resolvable names for kind.
func (d *Directory) Len(kind domain.EntityKind) int {
	n := 0
	for _, id := range d.names[kind] {
		if !id.IsZero() {
			n++
		}
	}
	return n
}

// Duplicates returns, per kind, the sorted names that were shadowed by a
// later entity with the same name.
func (d *Directory) Duplicates() map[domain.EntityKind][]string {
	out := make(map[domain.EntityKind][]string, len(d.duplicates))
	for kind, names := range d.duplicates {
		list := make([]string, 0, len(names))
		for name := range names {
			list = append(list, name)
		}
		sort.Strings(list)
		out[kind] = list
	}
	return out
}

// DuplicateCount returns how many entities were shadowed across all kinds.
func (d *Directory) DuplicateCount() int {
	n := 0
	for _, names := range d.duplicates {
		for _, c := range names {
			n += c
		}
	}
	return n
}
