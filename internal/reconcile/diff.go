package reconcile

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/lherron/clashsync/internal/domain"
	"github.com/pmezard/go-difflib/difflib"
)

// WriteDiff writes a unified diff of every planned field change.
func WriteDiff(w io.Writer, updates []Update) error {
	for _, u := range updates {
		fields := make([]string, 0, len(u.Fields))
		for f := range u.Fields {
			fields = append(fields, string(f))
		}
		sort.Strings(fields)

		for _, f := range fields {
			field := domain.ConflictField(f)
			diff := difflib.UnifiedDiff{
				A:        lines(u.Before[field]),
				B:        lines(u.Fields[field]),
				FromFile: fmt.Sprintf("%s %s (remote)", u.Entity, field),
				ToFile:   fmt.Sprintf("%s %s (planned)", u.Entity, field),
				Context:  1,
			}
			text, err := difflib.GetUnifiedDiffString(diff)
			if err != nil {
				return fmt.Errorf("diff %s %s: %w", u.Entity, field, err)
			}
			if text == "" {
				continue
			}
			if _, err := io.WriteString(w, text); err != nil {
				return err
			}
		}
	}
	return nil
}

func lines(ids []domain.Identity) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id) + "\n"
	}
	return out
}

// formatFields renders an update's fields as "field=[a b]; ...".
func formatFields(u Update) string {
	keys := make([]string, 0, len(u.Fields))
	for f := range u.Fields {
		keys = append(keys, string(f))
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		ids := u.Fields[domain.ConflictField(k)]
		strs := make([]string, len(ids))
		for j, id := range ids {
			strs[j] = string(id)
		}
		parts[i] = fmt.Sprintf("%s=[%s]", k, strings.Join(strs, " "))
	}
	return strings.Join(parts, "; ")
}
