package config

// RenderSettings are per-report rendering defaults from the project file.
// Pointer fields distinguish "not set" from false.
type RenderSettings struct {
	// Format overrides the output format.
	Format string `yaml:"format,omitempty"`

	// Footer is appended to the document.
	Footer string `yaml:"footer,omitempty"`

	// Summary adds the risk summary section.
	Summary *bool `yaml:"summary,omitempty"`

	// Color enables ANSI colors in text output.
	Color *bool `yaml:"color,omitempty"`
}

// File represents the structure of the .tmreport project file.
type File struct {
	// Defaults apply to every report unless overridden.
	Defaults RenderSettings `yaml:"defaults,omitempty"`

	// Reports maps an input file's base name (e.g. "shop.yaml") to its
	// own settings.
	Reports map[string]RenderSettings `yaml:"reports,omitempty"`
}

// GetRenderSettings returns the settings for one input file, merging the
// report-specific entry over the defaults.
func (f *File) GetRenderSettings(name string) RenderSettings {
	result := f.Defaults

	override, ok := f.Reports[name]
	if !ok {
		return result
	}
	if override.Format != "" {
		result.Format = override.Format
	}
	if override.Footer != "" {
		result.Footer = override.Footer
	}
	if override.Summary != nil {
		result.Summary = override.Summary
	}
	if override.Color != nil {
		result.Color = override.Color
	}
	return result
}
