package orchestrator

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/stagehand-dev/stagehand/pkg/models"
)

// Stage is one step of the pipeline. Stages execute in slice order;
// the phases within a stage execute concurrently and the pipeline
// waits for all of them before moving on.
type Stage struct {
	Phases []models.Phase `yaml:"phases"`
}

// Parallel reports whether this stage runs more than one phase.
func (s Stage) Parallel() bool {
	return len(s.Phases) > 1
}

// pipelineStages is the single definition of the pipeline's shape.
// The executable phase order, the transition edges, and the exported
// topology document are all derived from it, so they cannot drift.
var pipelineStages = []Stage{
	{Phases: []models.Phase{models.PhaseResearch}},
	{Phases: []models.Phase{models.PhaseSpecification}},
	{Phases: []models.Phase{models.PhaseDevelopment, models.PhaseQAPreparation}},
	{Phases: []models.Phase{models.PhaseQualityAssurance}},
	{Phases: []models.Phase{models.PhaseIntegration}},
}

// Stages returns a copy of the pipeline stage table.
func Stages() []Stage {
	out := make([]Stage, len(pipelineStages))
	copy(out, pipelineStages)
	return out
}

// Edge is one legal phase transition.
type Edge struct {
	From models.Phase `yaml:"from"`
	To   models.Phase `yaml:"to"`
}

// Edges derives the transition edges from the stage table: every phase
// of a stage flows to every phase of the next stage.
func Edges() []Edge {
	var edges []Edge
	for i := 0; i < len(pipelineStages)-1; i++ {
		for _, from := range pipelineStages[i].Phases {
			for _, to := range pipelineStages[i+1].Phases {
				edges = append(edges, Edge{From: from, To: to})
			}
		}
	}
	return edges
}

// ValidTransition reports whether moving from one phase to another is
// a legal pipeline transition.
func ValidTransition(from, to models.Phase) bool {
	for _, e := range Edges() {
		if e.From == from && e.To == to {
			return true
		}
	}
	return false
}

// topologyDoc is the serialized form of the pipeline shape.
type topologyDoc struct {
	Stages []Stage `yaml:"stages"`
	Edges  []Edge  `yaml:"edges"`
}

// TopologyYAML renders the stage table and its derived edges as YAML,
// for the CLI's config inspection output.
func TopologyYAML() ([]byte, error) {
	doc := topologyDoc{Stages: Stages(), Edges: Edges()}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal topology: %w", err)
	}
	return out, nil
}
