package model

import "testing"

// TestParseClassification tests name parsing and separators.
func TestParseClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Classification
	}{
		{"public", ClassificationPublic},
		{"RESTRICTED", ClassificationRestricted},
		{" Sensitive ", ClassificationSensitive},
		{"secret", ClassificationSecret},
		{"TOP_SECRET", ClassificationTopSecret},
		{"top secret", ClassificationTopSecret},
		{"Top-Secret", ClassificationTopSecret},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseClassification(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseClassification(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	t.Run("unknown name is a validation error", func(t *testing.T) {
		t.Parallel()
		got, err := ParseClassification("confidential")
		if !IsValidationError(err) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if got.Valid() {
			t.Error("expected invalid classification on error")
		}
	})
}

// TestClassificationLabel verifies display names.
func TestClassificationLabel(t *testing.T) {
	t.Parallel()

	if got := ClassificationTopSecret.Label(); got != "Top Secret" {
		t.Errorf("Label() = %q, want %q", got, "Top Secret")
	}
	if got := ClassificationSensitive.Label(); got != "Sensitive" {
		t.Errorf("Label() = %q, want %q", got, "Sensitive")
	}
}

// TestClassificationText verifies text encoding in both directions.
func TestClassificationText(t *testing.T) {
	t.Parallel()

	b, err := ClassificationTopSecret.MarshalText()
	if err != nil || string(b) != "TOP_SECRET" {
		t.Errorf("MarshalText() = %q, %v", b, err)
	}
	if _, err := Classification(8).MarshalText(); !IsValidationError(err) {
		t.Errorf("expected ValidationError for unknown classification, got %v", err)
	}

	var c Classification
	if err := c.UnmarshalText(b); err != nil || c != ClassificationTopSecret {
		t.Errorf("UnmarshalText() = %v, %v", c, err)
	}
}
