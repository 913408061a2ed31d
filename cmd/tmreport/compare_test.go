package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/nao1215/tmreport/internal/model"
)

// TestNewCompareCmd tests the compare command flags.
func TestNewCompareCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCompareCmd()

	if cmd.Use != "compare name" {
		t.Errorf("unexpected Use: got %q", cmd.Use)
	}

	flagsWithShort := map[string]string{
		"with-revision": "r",
		"json":          "j",
		"markdown":      "m",
	}
	for flag, shorthand := range flagsWithShort {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			t.Errorf("expected flag %q to exist", flag)
			continue
		}
		if f.Shorthand != shorthand {
			t.Errorf("flag %q: expected shorthand %q, got %q", flag, shorthand, f.Shorthand)
		}
	}

	// Verify db-dir flag does NOT exist (uses XDG directory)
	if cmd.Flags().Lookup("db-dir") != nil {
		t.Error("db-dir flag should not exist")
	}
}

// TestCompareRevisions tests loading and diffing stored revisions.
func TestCompareRevisions(t *testing.T) {
	t.Parallel()

	warning := model.ThreatFinding{Severity: model.SeverityWarning, Description: "Public S3 bucket"}
	critical := model.ThreatFinding{Severity: model.SeverityCritical, Description: "Root keys in use"}

	t.Run("compares latest two revisions", func(t *testing.T) {
		t.Parallel()

		db := setupHistoryDB(t)
		ctx := context.Background()

		if _, _, err := db.SaveRevision(ctx, "shop", historyReport(warning), "markdown", "v1"); err != nil {
			t.Fatal(err)
		}
		current := historyReport(critical)
		current.Controls[0].Status = model.StatusImplemented
		if _, _, err := db.SaveRevision(ctx, "shop", current, "markdown", "v2"); err != nil {
			t.Fatal(err)
		}

		result, err := compareRevisions(ctx, db, "shop", 0)
		if err != nil {
			t.Fatalf("compareRevisions() error = %v", err)
		}
		if result.RiskDirection != model.RiskWorsened {
			t.Errorf("RiskDirection = %q, want worsened", result.RiskDirection)
		}
		if len(result.NewThreats) != 1 || len(result.ResolvedThreats) != 1 {
			t.Errorf("unexpected threat changes: %+v", result.Comparison)
		}
		if len(result.StatusChanges) != 1 {
			t.Errorf("expected 1 status change, got %d", len(result.StatusChanges))
		}
		if result.Previous.ID >= result.Current.ID {
			t.Errorf("expected previous %d before current %d", result.Previous.ID, result.Current.ID)
		}
	})

	t.Run("requires two revisions", func(t *testing.T) {
		t.Parallel()

		db := setupHistoryDB(t)
		ctx := context.Background()

		if _, err := compareRevisions(ctx, db, "shop", 0); err == nil {
			t.Error("expected error for missing model")
		}
		if _, _, err := db.SaveRevision(ctx, "shop", historyReport(), "markdown", "v1"); err != nil {
			t.Fatal(err)
		}
		if _, err := compareRevisions(ctx, db, "shop", 0); err == nil {
			t.Error("expected error with a single revision")
		}
	})

	t.Run("with revision of another model fails", func(t *testing.T) {
		t.Parallel()

		db := setupHistoryDB(t)
		ctx := context.Background()

		other, _, err := db.SaveRevision(ctx, "admin", historyReport(), "markdown", "a1")
		if err != nil {
			t.Fatal(err)
		}
		if _, _, err := db.SaveRevision(ctx, "shop", historyReport(), "markdown", "s1"); err != nil {
			t.Fatal(err)
		}

		_, err = compareRevisions(ctx, db, "shop", other.ID)
		if err == nil || !strings.Contains(err.Error(), "belongs to admin") {
			t.Errorf("expected ownership error, got %v", err)
		}
	})
}

// TestComparisonOutput tests the three output formats.
func TestComparisonOutput(t *testing.T) {
	t.Parallel()

	previous := historyReport(model.ThreatFinding{Severity: model.SeverityCritical, Description: "Root keys in use"})
	current := historyReport()
	current.Components = append(current.Components, "AWS WAF")
	result := &ComparisonResult{
		Name:       "shop",
		Previous:   RevisionInfo{ID: 1, RiskSummary: map[string]int{"critical": 1}},
		Current:    RevisionInfo{ID: 2, RiskSummary: map[string]int{}},
		Comparison: model.Compare(previous, current),
	}

	t.Run("text", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer
		if err := outputComparisonText(&out, result); err != nil {
			t.Fatal(err)
		}
		for _, want := range []string{
			"Threat Model Comparison: shop",
			"IMPROVED (risk decreased)",
			"[-] [Critical] Root keys in use",
			"added AWS WAF",
		} {
			if !strings.Contains(out.String(), want) {
				t.Errorf("expected %q in output:\n%s", want, out.String())
			}
		}
	})

	t.Run("markdown", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer
		if err := outputComparisonMarkdown(&out, result); err != nil {
			t.Fatal(err)
		}
		for _, want := range []string{
			"# Threat Model Comparison: shop",
			"## Resolved Threats (1)",
			"~~**[Critical]** Root keys in use~~",
			"## Component Changes",
		} {
			if !strings.Contains(out.String(), want) {
				t.Errorf("expected %q in output:\n%s", want, out.String())
			}
		}
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer
		if err := outputComparisonJSON(&out, result); err != nil {
			t.Fatal(err)
		}

		var decoded map[string]any
		if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded["name"] != "shop" || decoded["risk_direction"] != model.RiskImproved {
			t.Errorf("unexpected JSON: %s", out.String())
		}
		if _, ok := decoded["resolved_threats"]; !ok {
			t.Error("expected embedded comparison fields")
		}
	})
}

// TestFormatDelta tests signed delta formatting.
func TestFormatDelta(t *testing.T) {
	t.Parallel()

	for delta, want := range map[int]string{3: "+3", -2: "-2", 0: "0"} {
		if got := formatDelta(delta); got != want {
			t.Errorf("formatDelta(%d) = %q, want %q", delta, got, want)
		}
	}
}
