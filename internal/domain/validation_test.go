package domain

import "testing"

func TestParseRelationKind(t *testing.T) {
	tests := []struct {
		raw  string
		want RelationKind
		ok   bool
	}{
		{"Judge-Team", RelationJudgeTeam, true},
		{"Judge-Judge", RelationJudgeJudge, true},
		{"Judge-Institution", RelationJudgeInstitution, true},
		{"Team-Institution", RelationTeamInstitution, true},
		{"", "", false},
		{"judge-team", "judge-team", false},
		{" Judge-Team", " Judge-Team", false},
		{"END", "END", false},
	}

	for _, tt := range tests {
		got, ok := ParseRelationKind(tt.raw)
		if ok != tt.ok {
			t.Errorf("ParseRelationKind(%q) ok = %v, want %v", tt.raw, ok, tt.ok)
		}
		if got != tt.want {
			t.Errorf("ParseRelationKind(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestValidateRelationKind(t *testing.T) {
	if err := ValidateRelationKind("Team-Institution"); err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
	if err := ValidateRelationKind("Team-Team"); err == nil {
		t.Error("Expected error for unknown relation kind")
	}
}

func TestValidateConflictField(t *testing.T) {
	tests := []struct {
		kind    EntityKind
		field   ConflictField
		wantErr bool
	}{
		{KindAdjudicator, FieldTeamConflicts, false},
		{KindAdjudicator, FieldAdjudicatorConflicts, false},
		{KindAdjudicator, FieldInstitutionConflicts, false},
		{KindTeam, FieldInstitutionConflicts, false},
		{KindTeam, FieldTeamConflicts, true},
		{KindTeam, FieldAdjudicatorConflicts, true},
		{KindInstitution, FieldInstitutionConflicts, true},
		{EntityKind("venue"), FieldTeamConflicts, true},
	}

	for _, tt := range tests {
		err := ValidateConflictField(tt.kind, tt.field)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateConflictField(%s, %s) error = %v, wantErr %v", tt.kind, tt.field, err, tt.wantErr)
		}
	}
}

func TestIdentityIsZero(t *testing.T) {
	if !Identity("").IsZero() {
		t.Error("empty identity should be zero")
	}
	if Identity("https://tab.example/api/v1/institutions/1").IsZero() {
		t.Error("non-empty identity should not be zero")
	}
}

func TestSortIdentities(t *testing.T) {
	ids := SortIdentities([]Identity{"c", "a", "b"})
	if ids[0] != "a" || ids[1] != "b" || ids[2] != "c" {
		t.Errorf("Expected sorted identities, got %v", ids)
	}
}
