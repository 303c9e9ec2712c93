package rules

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nstehr/sift/model"
	"github.com/nstehr/sift/sink"
)

func TestLoadRuleSet(t *testing.T) {
	rs, err := LoadRuleSet(filepath.Join("testdata", "alerts.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "alerts", rs.Name)
	assert.Equal(t, AllMatch, rs.Policy)
	require.Len(t, rs.Rules, 3)
	assert.Equal(t, RuleSpec{
		Name: "page-on-errors",
		When: `Is("error") && Mentions("database")`,
		Do:   ActionSpec{Kind: KindEmit, Prefix: "PAGE:"},
	}, rs.Rules[0])
	require.NotNil(t, rs.Fallback)
	assert.Equal(t, KindRender, rs.Fallback.Kind)

	d, err := rs.Build(nil)
	require.NoError(t, err)
	out := sink.NewRecorder()

	for _, rec := range []model.Record{
		{Category: "error", Payload: "database connection refused"},
		{Category: "info", Payload: "heartbeat"},
		{Category: "info", Payload: "ok"},
	} {
		_, err := d.Dispatch(rec, out)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{
		"PAGE:database connection refused",
		`AUDIT:{category: "error", payload: "database connection refused"}`,
		"unrouted info: ok",
	}, out.Lines())
}

func TestLoadRuleSetMissingFile(t *testing.T) {
	_, err := LoadRuleSet(filepath.Join("testdata", "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read rule set")
}

func TestParseRuleSetDefaultsToFirstMatch(t *testing.T) {
	rs, err := ParseRuleSet([]byte(`
name: minimal
rules:
  - name: any
    when: "true"
    do: {kind: emit}
`))
	require.NoError(t, err)
	assert.Equal(t, FirstMatch, rs.Policy)
	assert.Nil(t, rs.Fallback)
}

func TestParseRuleSetErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"empty", ``, "empty rule set"},
		{"bad policy", "policy: sometimes\n", "invalid dispatch policy"},
		{"unknown field", "name: x\nrulez: []\n", "field rulez not found"},
		{"missing name", "rules:\n  - when: \"true\"\n", "rule 0: missing name"},
		{"missing when", "rules:\n  - name: a\n", `rule "a": missing when`},
		{"duplicate", "rules:\n  - {name: a, when: \"true\"}\n  - {name: a, when: \"false\"}\n", "duplicate rule name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRuleSet([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBuildReportsBadRules(t *testing.T) {
	rs := &RuleSet{Rules: []RuleSpec{{Name: "a", When: "true", Do: ActionSpec{Kind: "page"}}}}
	_, err := rs.Build(nil)
	require.ErrorIs(t, err, ErrUnknownActionKind)
	assert.Contains(t, err.Error(), `rule "a"`)

	rs = &RuleSet{
		Rules:    []RuleSpec{{Name: "a", When: "true", Do: ActionSpec{Kind: KindEmit}}},
		Fallback: &ActionSpec{Kind: KindRender},
	}
	_, err = rs.Build(nil)
	require.ErrorIs(t, err, ErrMissingExpr)
	assert.Contains(t, err.Error(), "fallback")

	rs = &RuleSet{Rules: []RuleSpec{{Name: "a", When: "Is(", Do: ActionSpec{Kind: KindEmit}}}}
	_, err = rs.Build(nil)
	assert.ErrorContains(t, err, `compile rule "a"`)
}

func TestRuleSetYAMLRoundTrip(t *testing.T) {
	data, err := NotifyPreset().YAML()
	require.NoError(t, err)
	assert.Contains(t, string(data), "policy: all-match")

	rs, err := ParseRuleSet(data)
	require.NoError(t, err)
	assert.Equal(t, NotifyPreset(), rs)
}
