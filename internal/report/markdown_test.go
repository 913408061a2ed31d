package report

import (
	"errors"
	"strings"
	"testing"

	"github.com/nao1215/tmreport/internal/model"
)

// createTestReport creates the AWS e-commerce scenario used across tests.
func createTestReport() *model.ThreatModelReport {
	return &model.ThreatModelReport{
		Title:          "AWS E-Commerce Threat Model",
		SystemOverview: "Online shop served through CloudFront and API Gateway.",
		Components:     []string{"AWS WAF", "API Gateway"},
		Controls: []model.SecurityControl{
			{Name: "TLS in Transit", Description: "Enforced TLS 1.2+", Status: model.StatusImplemented},
		},
		Threats: []model.ThreatFinding{
			{Severity: model.SeverityWarning, Description: "Public S3 bucket without restricted access policy."},
		},
		Recommendations: []string{"Enable AWS S3 Block Public Access."},
	}
}

// assertInOrder fails unless every part appears in output after the previous one.
func assertInOrder(t *testing.T, output string, parts ...string) {
	t.Helper()
	pos := 0
	for _, part := range parts {
		idx := strings.Index(output[pos:], part)
		if idx < 0 {
			t.Fatalf("expected %q after offset %d in output:\n%s", part, pos, output)
		}
		pos += idx + len(part)
	}
}

// TestMarkdownRenderer tests the primary report format.
func TestMarkdownRenderer(t *testing.T) {
	t.Parallel()

	t.Run("renders scenario sections in order", func(t *testing.T) {
		t.Parallel()

		output, err := NewMarkdownRenderer().Render(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		assertInOrder(t, output,
			"# AWS E-Commerce Threat Model",
			"## System Overview",
			"## Components",
			"AWS WAF",
			"API Gateway",
			"| Control | Description | Status |",
			"|---------|---------|---------|",
			"| TLS in Transit | Enforced TLS 1.2+ | ✅ |",
			"## Threats",
			"[!WARNING]",
			"**Warning:** Public S3 bucket without restricted access policy.",
			"## Recommendations",
			"Enable AWS S3 Block Public Access.",
		)
		if strings.Count(output, "| TLS in Transit") != 1 {
			t.Error("expected exactly one control row")
		}
		if strings.Count(output, "[!WARNING]") != 1 {
			t.Error("expected exactly one warning block")
		}
	})

	t.Run("is deterministic", func(t *testing.T) {
		t.Parallel()

		r := NewMarkdownRenderer(WithSummary(), WithFooter("Reviewed by the platform team"))
		first, err := r.Render(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := r.Render(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if first != second {
			t.Error("expected identical output for identical input")
		}
	})

	t.Run("empty recommendations omit the section", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Recommendations = nil

		output, err := NewMarkdownRenderer().Render(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(output, "Recommendations") {
			t.Error("expected no recommendations header")
		}
	})

	t.Run("empty optional sections are omitted", func(t *testing.T) {
		t.Parallel()

		report := &model.ThreatModelReport{Components: []string{"API Gateway"}}
		output, err := NewMarkdownRenderer().Render(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, header := range []string{
			"## System Overview", "## Assumptions", "## Trust Boundaries", "## Data Assets",
			"## Data Flows", "## Security Controls", "## Threats", "## Recommendations",
		} {
			if strings.Contains(output, header) {
				t.Errorf("expected %q to be omitted", header)
			}
		}
		if !strings.Contains(output, "# "+model.DefaultTitle) {
			t.Error("expected default title")
		}
	})

	t.Run("preserves recommendation order", func(t *testing.T) {
		t.Parallel()

		recs := []string{"Rotate access keys.", "Enable GuardDuty.", "Apply least privilege.", "Audit CloudTrail."}
		permutations := [][]int{{0, 1, 2, 3}, {3, 2, 1, 0}, {2, 0, 3, 1}, {1, 3, 0, 2}}

		for _, perm := range permutations {
			report := createTestReport()
			report.Recommendations = nil
			ordered := make([]string, 0, len(perm))
			for _, i := range perm {
				report.Recommendations = append(report.Recommendations, recs[i])
				ordered = append(ordered, recs[i])
			}

			output, err := NewMarkdownRenderer().Render(report)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			assertInOrder(t, output, append([]string{"## Recommendations"}, ordered...)...)
		}
	})

	t.Run("each severity gets its own callout", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Threats = []model.ThreatFinding{
			{Severity: model.SeverityCritical, Description: "Root credentials in CI, 100% of pipelines."},
			{Severity: model.SeverityInfo, Description: "Default VPC in use."},
			{Severity: model.SeverityWarning, Description: "No MFA on console users."},
		}

		output, err := NewMarkdownRenderer().Render(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertInOrder(t, output,
			"[!CAUTION]", "**Critical:** Root credentials in CI, 100% of pipelines.",
			"[!NOTE]", "**Info:** Default VPC in use.",
			"[!WARNING]", "**Warning:** No MFA on console users.",
		)
		for _, block := range []string{
			"> [!CAUTION]  \n> **Critical:** Root credentials in CI, 100% of pipelines.",
			"> [!NOTE]  \n> **Info:** Default VPC in use.",
			"> [!WARNING]  \n> **Warning:** No MFA on console users.",
		} {
			if !strings.Contains(output, block) {
				t.Errorf("expected alert block %q in:\n%s", block, output)
			}
		}
	})

	t.Run("status glyphs", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Controls = []model.SecurityControl{
			{Name: "KMS", Description: "At rest", Status: model.StatusPartial},
			{Name: "Backups", Description: "Cross-region", Status: model.StatusMissing},
		}

		output, err := NewMarkdownRenderer().Render(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertInOrder(t, output, "| KMS | At rest | ⚠️ |", "| Backups | Cross-region | ❌ |")
	})

	t.Run("escapes table cells", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Controls[0].Description = "TLS 1.2 | 1.3\nonly"

		output, err := NewMarkdownRenderer().Render(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output, `| TLS in Transit | TLS 1.2 \| 1.3 only | ✅ |`) {
			t.Errorf("expected escaped row, got:\n%s", output)
		}
	})

	t.Run("summary and footer", func(t *testing.T) {
		t.Parallel()

		output, err := NewMarkdownRenderer(WithSummary(), WithFooter("*Generated by tmreport*")).Render(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertInOrder(t, output,
			"# AWS E-Commerce Threat Model",
			"## Risk Summary",
			"| Severity | Count |",
			"|---------|---------|",
			"| 🔴 Critical | 0 |",
			"| 🟠 Warning | 1 |",
			"| 🔵 Info | 0 |",
			"| **Total** | **1** |",
			"mermaid",
			"## System Overview",
			"*Generated by tmreport*",
		)
	})

	t.Run("summary without threats shows a tip", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Threats = nil
		output, err := NewMarkdownRenderer(WithSummary()).Render(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output, "[!TIP]") {
			t.Error("expected tip alert")
		}
		if strings.Contains(output, "mermaid") {
			t.Error("expected no chart without threats")
		}
	})

	t.Run("line breaks in the title stay in the heading", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Title = "Shop\n## Injected\n\n- item"

		output, err := NewMarkdownRenderer().Render(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		firstLine, _, _ := strings.Cut(output, "\n")
		if firstLine != "# Shop ## Injected - item" {
			t.Errorf("expected single-line heading, got %q", firstLine)
		}
		for _, line := range strings.Split(output, "\n") {
			if line == "## Injected" || line == "- item" {
				t.Errorf("title text escaped the heading as %q:\n%s", line, output)
			}
		}
	})

	t.Run("architecture sections", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Boundaries = []model.TrustBoundary{
			{Name: "Internet"},
			{Name: "AWS Edge", Components: []string{"AWS WAF", "API Gateway"}},
		}
		report.DataAssets = []model.DataAsset{
			{Name: "Customer PII", Description: "Names | addresses", Classification: model.ClassificationSensitive},
			{Name: "Signing keys", Classification: model.ClassificationTopSecret},
		}
		report.Dataflows = []model.Dataflow{
			{Source: "AWS WAF", Destination: "API Gateway", Description: "Filtered HTTPS requests"},
		}

		output, err := NewMarkdownRenderer().Render(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertInOrder(t, output,
			"## Components",
			"## Trust Boundaries",
			"**Internet**",
			"**AWS Edge**: AWS WAF, API Gateway",
			"## Data Assets",
			"| Data | Classification | Description |",
			`| Customer PII | Sensitive | Names \| addresses |`,
			"| Signing keys | Top Secret |  |",
			"## Data Flows",
			"| Source | Destination | Data |",
			"| AWS WAF | API Gateway | Filtered HTTPS requests |",
			"## Security Controls",
		)
	})

	t.Run("does not modify input", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Controls[0].Description = "a | b"
		if _, err := NewMarkdownRenderer().Render(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Controls[0].Description != "a | b" {
			t.Error("expected input to be unchanged")
		}
	})
}

// TestMarkdownRendererValidation verifies all-or-nothing rendering.
func TestMarkdownRendererValidation(t *testing.T) {
	t.Parallel()

	t.Run("empty components fail", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Components = []string{}

		output, err := NewMarkdownRenderer().Render(report)
		if !errors.Is(err, model.ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
		if output != "" {
			t.Error("expected no partial output")
		}
	})

	t.Run("unknown status fails", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Controls[0].Status = model.ControlStatus(99)

		_, err := NewMarkdownRenderer().Render(report)
		if !model.IsValidationError(err) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("unknown severity fails", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Threats[0].Severity = model.Severity(5)

		_, err := NewMarkdownRenderer().Render(report)
		if !model.IsValidationError(err) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})
}
