package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func names(entities []Entity) []string {
	out := make([]string, 0, len(entities))
	for _, e := range entities {
		out = append(out, e.Name)
	}

	return out
}

func TestPolicyMatch(t *testing.T) {
	candidates := []Entity{
		{ID: 1, Name: "Alien"},
		{ID: 2, Name: "Aliens"},
		{ID: 3, Name: "Alien³"},
		{ID: 4, Name: "Alien: Resurrection"},
		{ID: 5, Name: "Alice"},
	}

	tests := []struct {
		name   string
		policy Policy
		query  string
		want   []string
	}{
		{"exact short-circuits", ResolvePolicy, "ALIEN", []string{"Alien"}},
		{"exact returned alone", SuggestPolicy, "aliens", []string{"Aliens"}},
		{"first within distance", ResolvePolicy, "alienz", []string{"Alien"}},
		{"substring when nothing is close", ResolvePolicy, "resurrection", []string{"Alien: Resurrection"}},
		{"suggest ignores substring", SuggestPolicy, "resurrection", nil},
		{"suggest keeps directory order", SuggestPolicy, "alie", []string{"Alien", "Aliens", "Alien³", "Alice"}},
		{"empty query", ResolvePolicy, " - ", nil},
		{"exact with zero distance", Policy{MaxDistance: 0, Substring: true}, "alien", []string{"Alien"}},
		{"substring collects", Policy{MaxDistance: -1, Substring: true}, "lien", []string{"Alien", "Aliens", "Alien³", "Alien: Resurrection"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.policy.Match(tt.query, candidates)
			if tt.want == nil {
				assert.Empty(t, got)

				return
			}
			assert.Equal(t, tt.want, names(got))
		})
	}
}
