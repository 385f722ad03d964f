package rdme

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SpeciesConfig declares one chemical species. Diffusion is the per-species
// diffusion coefficient; a jump channel's rate along a mesh edge is the
// coefficient times the edge weight. Zero disables diffusion for the
// species.
type SpeciesConfig struct {
	Name      string  `json:"name" yaml:"name"`
	Diffusion float64 `json:"diffusion,omitempty" yaml:"diffusion,omitempty"`
}

// CellConfig declares one subvolume of the mesh.
type CellConfig struct {
	Volume    float64          `json:"volume" yaml:"volume"`
	Subdomain int              `json:"subdomain,omitempty" yaml:"subdomain,omitempty"`
	Ldata     []float64        `json:"ldata,omitempty" yaml:"ldata,omitempty"`
	Counts    map[string]int64 `json:"counts,omitempty" yaml:"counts,omitempty"`
}

// ReactionConfig declares one mass-action reaction. Reactants and Products
// name species; at most two reactants (two identical names meaning
// dimerization). Subdomains optionally restricts where the reaction is
// active.
type ReactionConfig struct {
	ID         string   `json:"id" yaml:"id"`
	Rate       float64  `json:"rate" yaml:"rate"`
	Reactants  []string `json:"reactants,omitempty" yaml:"reactants,omitempty"`
	Products   []string `json:"products,omitempty" yaml:"products,omitempty"`
	Subdomains []int    `json:"subdomains,omitempty" yaml:"subdomains,omitempty"`
}

// EdgeConfig declares one directed mesh edge between neighboring cells.
// Every diffusing species gets a jump channel along every edge.
type EdgeConfig struct {
	From   int     `json:"from" yaml:"from"`
	To     int     `json:"to" yaml:"to"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// ModelConfig is the declarative model description consumed by
// BuildModelFromConfig. It is what the CLI and the server accept as JSON or
// YAML.
type ModelConfig struct {
	Name      string           `json:"name" yaml:"name"`
	Species   []SpeciesConfig  `json:"species" yaml:"species"`
	Cells     []CellConfig     `json:"cells" yaml:"cells"`
	Reactions []ReactionConfig `json:"reactions,omitempty" yaml:"reactions,omitempty"`
	Edges     []EdgeConfig     `json:"edges,omitempty" yaml:"edges,omitempty"`
	Gdata     []float64        `json:"gdata,omitempty" yaml:"gdata,omitempty"`

	// Tspan is the default output-time sequence for runs of this model;
	// callers may override it per run.
	Tspan []float64 `json:"tspan,omitempty" yaml:"tspan,omitempty"`
}

// LoadModelConfig reads a model description from a JSON or YAML file,
// chosen by extension, and validates it.
func LoadModelConfig(path string) (ModelConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ModelConfig{}, fmt.Errorf("reading model file: %w", err)
	}

	var cfg ModelConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return ModelConfig{}, fmt.Errorf("parsing model YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return ModelConfig{}, fmt.Errorf("parsing model JSON: %w", err)
		}
	}

	if err := ValidateModelConfig(cfg); err != nil {
		return ModelConfig{}, err
	}
	return cfg, nil
}
