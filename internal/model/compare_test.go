package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestCompare tests revision comparison.
func TestCompare(t *testing.T) {
	t.Parallel()

	t.Run("identical revisions have no changes", func(t *testing.T) {
		t.Parallel()
		result := Compare(validReport(), validReport())
		if result.HasChanges() {
			t.Errorf("expected no changes, got %+v", result)
		}
		if result.RiskDirection != RiskUnchanged {
			t.Errorf("expected unchanged, got %s", result.RiskDirection)
		}
	})

	t.Run("detects every kind of change", func(t *testing.T) {
		t.Parallel()
		previous := validReport()
		previous.Controls = append(previous.Controls, SecurityControl{Name: "Audit logging", Status: StatusMissing})

		current := validReport()
		current.Components = []string{"API Gateway", "Lambda"}
		current.Controls = []SecurityControl{
			{Name: "TLS in Transit", Description: "Enforced TLS 1.2+", Status: StatusPartial},
			{Name: "KMS encryption", Status: StatusImplemented},
		}
		current.Threats = []ThreatFinding{
			{Severity: SeverityCritical, Description: "IAM role with wildcard permissions."},
		}

		got := Compare(previous, current)
		want := &Comparison{
			NewThreats:      []ThreatFinding{{Severity: SeverityCritical, Description: "IAM role with wildcard permissions."}},
			ResolvedThreats: []ThreatFinding{{Severity: SeverityWarning, Description: "Public S3 bucket without restricted access policy."}},
			StatusChanges: []StatusChange{
				{Control: "TLS in Transit", Previous: StatusImplemented, Current: StatusPartial},
			},
			AddedControls:     []SecurityControl{{Name: "KMS encryption", Status: StatusImplemented}},
			RemovedControls:   []SecurityControl{{Name: "Audit logging", Status: StatusMissing}},
			AddedComponents:   []string{"Lambda"},
			RemovedComponents: []string{"AWS WAF"},
			PreviousScore:     SeverityWarning.Weight(),
			CurrentScore:      SeverityCritical.Weight(),
			RiskDirection:     RiskWorsened,
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Compare() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("resolving threats improves risk", func(t *testing.T) {
		t.Parallel()
		current := validReport()
		current.Threats = nil

		got := Compare(validReport(), current)
		if got.RiskDirection != RiskImproved {
			t.Errorf("expected improved, got %s", got.RiskDirection)
		}
	})
}
