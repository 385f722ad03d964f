// Package client provides a Go client for the rdmesim HTTP server: a fluent
// builder for model configurations and typed wrappers around the REST API.
package client

import (
	"github.com/daniacca/rdmesim/internal/rdme"
)

// ModelBuilder provides a fluent API for building model configurations.
// Use it to declare species, mesh cells, reactions and diffusion edges
// without writing the config JSON by hand.
type ModelBuilder struct {
	name      string
	species   []rdme.SpeciesConfig
	cells     []rdme.CellConfig
	reactions []*ReactionBuilder
	edges     []rdme.EdgeConfig
	gdata     []float64
	tspan     []float64
}

// NewModel creates a new model builder with the given name.
func NewModel(name string) *ModelBuilder {
	return &ModelBuilder{name: name}
}

// Species adds a species with its diffusion coefficient. A coefficient of
// zero declares an immobile species.
func (mb *ModelBuilder) Species(name string, diffusion float64) *ModelBuilder {
	mb.species = append(mb.species, rdme.SpeciesConfig{Name: name, Diffusion: diffusion})
	return mb
}

// Cell adds a mesh cell with the given volume and initial molecule counts.
func (mb *ModelBuilder) Cell(volume float64, counts map[string]int64) *ModelBuilder {
	mb.cells = append(mb.cells, rdme.CellConfig{Volume: volume, Counts: counts})
	return mb
}

// CellIn adds a mesh cell assigned to a subdomain.
func (mb *ModelBuilder) CellIn(volume float64, subdomain int, counts map[string]int64) *ModelBuilder {
	mb.cells = append(mb.cells, rdme.CellConfig{Volume: volume, Subdomain: subdomain, Counts: counts})
	return mb
}

// Reaction adds a reaction definition to the model.
func (mb *ModelBuilder) Reaction(rb *ReactionBuilder) *ModelBuilder {
	mb.reactions = append(mb.reactions, rb)
	return mb
}

// Edge adds a directed diffusion edge between two cells. Add both
// directions for symmetric diffusion.
func (mb *ModelBuilder) Edge(from, to int, weight float64) *ModelBuilder {
	mb.edges = append(mb.edges, rdme.EdgeConfig{From: from, To: to, Weight: weight})
	return mb
}

// Gdata sets global parameter data visible to every propensity.
func (mb *ModelBuilder) Gdata(values ...float64) *ModelBuilder {
	mb.gdata = values
	return mb
}

// Tspan sets the default output times for runs of this model.
func (mb *ModelBuilder) Tspan(times ...float64) *ModelBuilder {
	mb.tspan = times
	return mb
}

// Build converts the builder to a ModelConfig accepted by SubmitModel.
func (mb *ModelBuilder) Build() rdme.ModelConfig {
	reactions := make([]rdme.ReactionConfig, 0, len(mb.reactions))
	for _, rb := range mb.reactions {
		reactions = append(reactions, rb.Build())
	}

	return rdme.ModelConfig{
		Name:      mb.name,
		Species:   mb.species,
		Cells:     mb.cells,
		Reactions: reactions,
		Edges:     mb.edges,
		Gdata:     mb.gdata,
		Tspan:     mb.tspan,
	}
}

// ReactionBuilder provides a fluent API for building mass-action reactions.
type ReactionBuilder struct {
	id         string
	rate       float64
	reactants  []string
	products   []string
	subdomains []int
}

// NewReaction creates a new reaction builder with the given ID.
func NewReaction(id string) *ReactionBuilder {
	return &ReactionBuilder{id: id}
}

// Rate sets the mass-action rate constant.
func (rb *ReactionBuilder) Rate(k float64) *ReactionBuilder {
	rb.rate = k
	return rb
}

// Reactants names the consumed species: none for a source reaction, one
// for unary, two (possibly identical) for bimolecular.
func (rb *ReactionBuilder) Reactants(species ...string) *ReactionBuilder {
	rb.reactants = species
	return rb
}

// Products names the produced species.
func (rb *ReactionBuilder) Products(species ...string) *ReactionBuilder {
	rb.products = species
	return rb
}

// InSubdomains restricts the reaction to cells in the given subdomains.
func (rb *ReactionBuilder) InSubdomains(subdomains ...int) *ReactionBuilder {
	rb.subdomains = subdomains
	return rb
}

// Build converts the builder to a ReactionConfig.
func (rb *ReactionBuilder) Build() rdme.ReactionConfig {
	return rdme.ReactionConfig{
		ID:         rb.id,
		Rate:       rb.rate,
		Reactants:  rb.reactants,
		Products:   rb.products,
		Subdomains: rb.subdomains,
	}
}
