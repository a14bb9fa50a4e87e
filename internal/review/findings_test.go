package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeFindings_CollapsesSameLocationAndCategory(t *testing.T) {
	findings := []Finding{
		{Category: RiskInjection, Severity: SeverityLow, Location: "db/query.go:42", Description: "string concat in query", Evidence: []string{"linter"}},
		{Category: RiskInjection, Severity: SeverityHigh, Location: "db/query.go:42", Description: "unsanitized input reaches query", Evidence: []string{"taint trace"}},
		{Category: RiskSecrets, Severity: SeverityMedium, Location: "db/query.go:42", Description: "credential in comment"},
	}

	merged := MergeFindings(findings)

	require.Len(t, merged, 2, "same location but different category must not collapse")
	assert.Equal(t, SeverityHigh, merged[0].Severity, "highest severity wins")
	assert.Equal(t, "unsanitized input reaches query", merged[0].Description)
	assert.ElementsMatch(t, []string{"linter", "taint trace"}, merged[0].Evidence)
	assert.Equal(t, RiskSecrets, merged[1].Category)
}

func TestMergeFindings_Idempotent(t *testing.T) {
	findings := []Finding{
		{Category: RiskAuth, Severity: SeverityHigh, Location: "auth/session.go:10", Description: "weak token"},
		{Category: RiskAuth, Severity: SeverityLow, Location: "auth/session.go:10", Description: "same spot"},
		{Category: RiskConfig, Severity: SeverityInfo, Location: "config.yaml", Description: "debug enabled"},
	}

	once := MergeFindings(findings)
	twice := MergeFindings(once)

	assert.Equal(t, once, twice)
}

func TestMergeFindings_PreservesFirstSeenOrder(t *testing.T) {
	findings := []Finding{
		{Category: RiskConfig, Severity: SeverityInfo, Location: "b"},
		{Category: RiskAuth, Severity: SeverityHigh, Location: "a"},
	}

	merged := MergeFindings(findings)

	require.Len(t, merged, 2)
	assert.Equal(t, "b", merged[0].Location)
	assert.Equal(t, "a", merged[1].Location)
}

func TestMergeFindings_Empty(t *testing.T) {
	assert.Empty(t, MergeFindings(nil))
}

func TestSortFindings_SeverityDescending(t *testing.T) {
	findings := []Finding{
		{Severity: SeverityLow, Location: "z"},
		{Severity: SeverityCritical, Location: "m"},
		{Severity: SeverityLow, Location: "a"},
	}

	SortFindings(findings)

	assert.Equal(t, SeverityCritical, findings[0].Severity)
	assert.Equal(t, "a", findings[1].Location)
	assert.Equal(t, "z", findings[2].Location)
}

func TestBuildReport(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Create([]Todo{makeTodo("td-1", "audit auth")}))
	require.NoError(t, l.RecordStatus("td-1", StatusDone, "clean"))

	findings := []Finding{
		{Category: RiskAuth, Severity: SeverityLow, Location: "a", Description: "minor"},
		{Category: RiskAuth, Severity: SeverityCritical, Location: "b", Description: "major"},
	}

	r := BuildReport("github.com/acme/app", l, findings, "one critical issue", false)

	assert.Equal(t, "github.com/acme/app", r.Target)
	assert.False(t, r.Accepted)
	require.Len(t, r.Findings, 2)
	assert.Equal(t, SeverityCritical, r.Findings[0].Severity, "report findings are sorted")
	require.Len(t, r.Resolutions, 1)
	assert.Equal(t, StatusDone, r.Resolutions[0].Status)

	counts := r.SeverityCounts()
	assert.Equal(t, 1, counts[SeverityCritical])
	assert.Equal(t, 1, counts[SeverityLow])

	rendered := r.Render()
	assert.Contains(t, rendered, "NOT ACCEPTED")
	assert.Contains(t, rendered, "td-1 -> done")

	data, err := r.JSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"accepted": false`)
}
