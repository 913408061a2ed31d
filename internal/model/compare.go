package model

// Risk directions reported by Compare.
const (
	RiskWorsened  = "worsened"
	RiskImproved  = "improved"
	RiskUnchanged = "unchanged"
)

// StatusChange records a control whose status differs between revisions.
type StatusChange struct {
	Control  string        `json:"control"`
	Previous ControlStatus `json:"previous"`
	Current  ControlStatus `json:"current"`
}

// Comparison is the difference between two revisions of a threat model.
type Comparison struct {
	NewThreats        []ThreatFinding   `json:"new_threats,omitempty"`
	ResolvedThreats   []ThreatFinding   `json:"resolved_threats,omitempty"`
	StatusChanges     []StatusChange    `json:"status_changes,omitempty"`
	AddedControls     []SecurityControl `json:"added_controls,omitempty"`
	RemovedControls   []SecurityControl `json:"removed_controls,omitempty"`
	AddedComponents   []string          `json:"added_components,omitempty"`
	RemovedComponents []string          `json:"removed_components,omitempty"`

	PreviousScore int    `json:"previous_score"`
	CurrentScore  int    `json:"current_score"`
	RiskDirection string `json:"risk_direction"`
}

// HasChanges reports whether anything differs between the revisions.
func (c *Comparison) HasChanges() bool {
	return len(c.NewThreats) > 0 || len(c.ResolvedThreats) > 0 ||
		len(c.StatusChanges) > 0 || len(c.AddedControls) > 0 ||
		len(c.RemovedControls) > 0 || len(c.AddedComponents) > 0 ||
		len(c.RemovedComponents) > 0
}

// Compare reports what changed from previous to current.
// Threats are matched by severity and description, controls by name, and
// components by name. Result slices keep the order of the revision they come
// from.
func Compare(previous, current *ThreatModelReport) *Comparison {
	result := &Comparison{
		PreviousScore: previous.Summarize().RiskScore,
		CurrentScore:  current.Summarize().RiskScore,
	}

	prevThreats := make(map[ThreatFinding]bool, len(previous.Threats))
	for _, t := range previous.Threats {
		prevThreats[t] = true
	}
	currThreats := make(map[ThreatFinding]bool, len(current.Threats))
	for _, t := range current.Threats {
		currThreats[t] = true
		if !prevThreats[t] {
			result.NewThreats = append(result.NewThreats, t)
		}
	}
	for _, t := range previous.Threats {
		if !currThreats[t] {
			result.ResolvedThreats = append(result.ResolvedThreats, t)
		}
	}

	prevControls := make(map[string]SecurityControl, len(previous.Controls))
	for _, c := range previous.Controls {
		prevControls[c.Name] = c
	}
	currControls := make(map[string]bool, len(current.Controls))
	for _, c := range current.Controls {
		currControls[c.Name] = true
		prev, ok := prevControls[c.Name]
		switch {
		case !ok:
			result.AddedControls = append(result.AddedControls, c)
		case prev.Status != c.Status:
			result.StatusChanges = append(result.StatusChanges, StatusChange{
				Control:  c.Name,
				Previous: prev.Status,
				Current:  c.Status,
			})
		}
	}
	for _, c := range previous.Controls {
		if !currControls[c.Name] {
			result.RemovedControls = append(result.RemovedControls, c)
		}
	}

	result.AddedComponents = difference(current.Components, previous.Components)
	result.RemovedComponents = difference(previous.Components, current.Components)

	switch {
	case result.CurrentScore > result.PreviousScore:
		result.RiskDirection = RiskWorsened
	case result.CurrentScore < result.PreviousScore:
		result.RiskDirection = RiskImproved
	default:
		result.RiskDirection = RiskUnchanged
	}

	return result
}

// difference returns the elements of a not present in b, in a's order.
func difference(a, b []string) []string {
	seen := make(map[string]bool, len(b))
	for _, s := range b {
		seen[s] = true
	}
	var out []string
	for _, s := range a {
		if !seen[s] {
			out = append(out, s)
		}
	}
	return out
}
