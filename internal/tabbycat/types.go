package tabbycat

import "github.com/lherron/clashsync/internal/domain"

// Institution is an entry of GET /institutions.
type Institution struct {
	ID   int    `json:"id"`
	URL  string `json:"url"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// Adjudicator is an entry of GET /tournaments/{slug}/adjudicators.
type Adjudicator struct {
	ID                   int      `json:"id"`
	URL                  string   `json:"url"`
	Name                 string   `json:"name"`
	Institution          *string  `json:"institution"`
	TeamConflicts        []string `json:"team_conflicts"`
	AdjudicatorConflicts []string `json:"adjudicator_conflicts"`
	InstitutionConflicts []string `json:"institution_conflicts"`
}

// Team is an entry of GET /tournaments/{slug}/teams.
type Team struct {
	ID                   int      `json:"id"`
	URL                  string   `json:"url"`
	ShortName            string   `json:"short_name"`
	LongName             string   `json:"long_name"`
	CodeName             string   `json:"code_name"`
	Institution          *string  `json:"institution"`
	InstitutionConflicts []string `json:"institution_conflicts"`
}

// Snapshot converts the listing entry to the reconciler's view.
func (i Institution) Snapshot() domain.Snapshot {
	return domain.Snapshot{
		Kind:     domain.KindInstitution,
		Name:     i.Name,
		Identity: domain.Identity(i.URL),
	}
}

// Snapshot converts the listing entry to the reconciler's view.
func (a Adjudicator) Snapshot() domain.Snapshot {
	return domain.Snapshot{
		Kind:     domain.KindAdjudicator,
		Name:     a.Name,
		Identity: domain.Identity(a.URL),
		Conflicts: map[domain.ConflictField][]domain.Identity{
			domain.FieldTeamConflicts:        identities(a.TeamConflicts),
			domain.FieldAdjudicatorConflicts: identities(a.AdjudicatorConflicts),
			domain.FieldInstitutionConflicts: identities(a.InstitutionConflicts),
		},
	}
}

// Snapshot converts the listing entry to the reconciler's view.
// Teams are looked up by short name.
func (t Team) Snapshot() domain.Snapshot {
	return domain.Snapshot{
		Kind:     domain.KindTeam,
		Name:     t.ShortName,
		Identity: domain.Identity(t.URL),
		Conflicts: map[domain.ConflictField][]domain.Identity{
			domain.FieldInstitutionConflicts: identities(t.InstitutionConflicts),
		},
	}
}

func identities(urls []string) []domain.Identity {
	ids := make([]domain.Identity, len(urls))
	for i, u := range urls {
		ids[i] = domain.Identity(u)
	}
	return ids
}
