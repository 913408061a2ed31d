package report

import (
	"strings"
	"testing"

	"github.com/nao1215/tmreport/internal/model"
)

// TestTextRenderer tests the terminal text format.
func TestTextRenderer(t *testing.T) {
	t.Parallel()

	t.Run("writes sections in order", func(t *testing.T) {
		t.Parallel()

		output, err := NewTextRenderer().Render(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertInOrder(t, output,
			"AWS E-COMMERCE THREAT MODEL",
			"SYSTEM OVERVIEW",
			"COMPONENTS",
			"  - AWS WAF",
			"  - API Gateway",
			"SECURITY CONTROLS",
			"✅ [Implemented] TLS in Transit - Enforced TLS 1.2+",
			"THREATS",
			"[!] WARNING: Public S3 bucket without restricted access policy.",
			"RECOMMENDATIONS",
			"  - Enable AWS S3 Block Public Access.",
		)
	})

	t.Run("no color by default", func(t *testing.T) {
		t.Parallel()

		output, err := NewTextRenderer().Render(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(output, "\x1b[") {
			t.Error("expected no ANSI escape codes")
		}
	})

	t.Run("color is forced when enabled", func(t *testing.T) {
		t.Parallel()

		r := NewTextRenderer(WithColor(true))
		first, err := r.Render(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(first, "\x1b[") {
			t.Error("expected ANSI escape codes")
		}
		second, _ := r.Render(createTestReport())
		if first != second {
			t.Error("expected deterministic colored output")
		}
	})

	t.Run("summary and footer", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Threats = append(report.Threats, model.ThreatFinding{Severity: model.SeverityCritical, Description: "Leaked keys."})

		output, err := NewTextRenderer(WithTextSummary(true), WithTextFooter("end of report")).Render(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertInOrder(t, output, "RISK SUMMARY", "CRITICAL:", "WARNING:", "TOTAL:", "[!!!] CRITICAL: Leaked keys.", "end of report")
	})

	t.Run("empty recommendations omit the section", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Recommendations = nil
		output, err := NewTextRenderer().Render(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(output, "RECOMMENDATIONS") {
			t.Error("expected no recommendations header")
		}
	})

	t.Run("line breaks in the title stay on the title line", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Title = "Shop\nSYSTEM OVERVIEW\n---"
		output, err := NewTextRenderer().Render(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		lines := strings.Split(output, "\n")
		if got := strings.TrimSpace(lines[1]); got != "SHOP SYSTEM OVERVIEW ---" {
			t.Errorf("expected flattened title line, got %q", lines[1])
		}
		if lines[2] != strings.Repeat("=", ruleWidth) {
			t.Errorf("expected rule after title, got %q", lines[2])
		}
	})

	t.Run("architecture sections", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Boundaries = []model.TrustBoundary{{Name: "AWS Edge", Components: []string{"AWS WAF"}}}
		report.DataAssets = []model.DataAsset{
			{Name: "Customer PII", Description: "Names and addresses", Classification: model.ClassificationSensitive},
		}
		report.Dataflows = []model.Dataflow{
			{Source: "AWS WAF", Destination: "API Gateway", Description: "Filtered HTTPS requests"},
		}

		output, err := NewTextRenderer().Render(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertInOrder(t, output,
			"COMPONENTS",
			"TRUST BOUNDARIES",
			"  - AWS Edge: AWS WAF",
			"DATA ASSETS",
			"  - Customer PII [Sensitive] - Names and addresses",
			"DATA FLOWS",
			"  AWS WAF -> API Gateway: Filtered HTTPS requests",
			"SECURITY CONTROLS",
		)
	})

	t.Run("validation failure yields no output", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Components = nil
		output, err := NewTextRenderer().Render(report)
		if !model.IsValidationError(err) || output != "" {
			t.Errorf("expected ValidationError and empty output, got %q, %v", output, err)
		}
	})
}

// TestCenter verifies centering by display width.
func TestCenter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{name: "ascii", in: "ABCD", width: 10, want: "   ABCD"},
		{name: "accented runes count once", in: "CAFÉ", width: 10, want: "   CAFÉ"},
		{name: "wide runes count twice", in: "脅威モデル", width: 20, want: "     脅威モデル"},
		{name: "too wide is unchanged", in: "脅威モデル", width: 8, want: "脅威モデル"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := center(tt.in, tt.width); got != tt.want {
				t.Errorf("center(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
			}
		})
	}
}
