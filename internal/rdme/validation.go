package rdme

import (
	"fmt"
	"strings"
)

// ValidationError collects multiple validation issues
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "invalid model: unknown validation error"
	}
	if len(e.Issues) == 1 {
		return e.Issues[0]
	}
	return "model validation errors: " + strings.Join(e.Issues, "; ")
}

func (e *ValidationError) Add(issue string) {
	e.Issues = append(e.Issues, issue)
}

func (e *ValidationError) HasIssues() bool {
	return len(e.Issues) > 0
}

// ValidateModelConfig performs comprehensive validation of a ModelConfig
func ValidateModelConfig(cfg ModelConfig) error {
	err := &ValidationError{}

	if cfg.Name == "" {
		err.Add("model name is required")
	}

	// Species
	speciesSet := make(map[string]bool)
	for i, sp := range cfg.Species {
		if sp.Name == "" {
			err.Add(fmt.Sprintf("species at index %d: name is required", i))
			continue
		}
		if speciesSet[sp.Name] {
			err.Add("duplicate species name: " + sp.Name)
		} else {
			speciesSet[sp.Name] = true
		}
		if sp.Diffusion < 0 {
			err.Add(fmt.Sprintf("species '%s': diffusion coefficient must be >= 0", sp.Name))
		}
	}
	if len(cfg.Species) == 0 {
		err.Add("at least one species is required")
	}

	// Cells
	if len(cfg.Cells) == 0 {
		err.Add("at least one cell is required")
	}
	dsize := -1
	for i, cell := range cfg.Cells {
		if cell.Volume <= 0 {
			err.Add(fmt.Sprintf("cell %d: volume must be positive", i))
		}
		if dsize == -1 {
			dsize = len(cell.Ldata)
		} else if len(cell.Ldata) != dsize {
			err.Add(fmt.Sprintf("cell %d: ldata has %d entries, cell 0 has %d", i, len(cell.Ldata), dsize))
		}
		for name, n := range cell.Counts {
			if !speciesSet[name] {
				err.Add(fmt.Sprintf("cell %d: count for unknown species '%s'", i, name))
			}
			if n < 0 {
				err.Add(fmt.Sprintf("cell %d: negative initial count for species '%s'", i, name))
			}
		}
	}

	// Reactions
	reactionIDs := make(map[string]bool)
	for i, rc := range cfg.Reactions {
		prefix := fmt.Sprintf("reaction at index %d", i)
		if rc.ID != "" {
			prefix = "reaction '" + rc.ID + "'"
		}

		if rc.ID == "" {
			err.Add(prefix + ": reaction ID is required")
		} else if reactionIDs[rc.ID] {
			err.Add("duplicate reaction ID: " + rc.ID)
		} else {
			reactionIDs[rc.ID] = true
		}

		if rc.Rate < 0 {
			err.Add(prefix + ": rate must be >= 0")
		}
		if len(rc.Reactants) > 2 {
			err.Add(prefix + ": at most two reactants are supported")
		}
		for _, name := range rc.Reactants {
			if !speciesSet[name] {
				err.Add(prefix + ": reactant species '" + name + "' does not exist")
			}
		}
		for _, name := range rc.Products {
			if !speciesSet[name] {
				err.Add(prefix + ": product species '" + name + "' does not exist")
			}
		}
		if len(rc.Reactants) == 0 && len(rc.Products) == 0 {
			err.Add(prefix + ": reaction has no reactants and no products")
		}
	}

	// Edges
	for i, edge := range cfg.Edges {
		if edge.From < 0 || edge.From >= len(cfg.Cells) || edge.To < 0 || edge.To >= len(cfg.Cells) {
			err.Add(fmt.Sprintf("edge at index %d: cells %d->%d out of range", i, edge.From, edge.To))
		} else if edge.From == edge.To {
			err.Add(fmt.Sprintf("edge at index %d: self-edge on cell %d", i, edge.From))
		}
		if edge.Weight <= 0 {
			err.Add(fmt.Sprintf("edge at index %d: weight must be positive", i))
		}
	}

	// Tspan
	for i := 1; i < len(cfg.Tspan); i++ {
		if cfg.Tspan[i] <= cfg.Tspan[i-1] {
			err.Add(fmt.Sprintf("tspan must be strictly increasing, got %g after %g", cfg.Tspan[i], cfg.Tspan[i-1]))
			break
		}
	}

	if err.HasIssues() {
		return err
	}
	return nil
}
