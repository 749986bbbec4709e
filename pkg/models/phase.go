package models

// Phase identifies one named step of the pipeline.
type Phase string

const (
	// PhaseResearch gathers background information for the task.
	PhaseResearch Phase = "research"
	// PhaseSpecification produces and validates the specification.
	PhaseSpecification Phase = "specification"
	// PhaseDevelopment implements the specification in parallel subtasks.
	PhaseDevelopment Phase = "development"
	// PhaseQAPreparation builds the test suite from the specification.
	PhaseQAPreparation Phase = "qa_preparation"
	// PhaseQualityAssurance runs the suite against the integrated code.
	PhaseQualityAssurance Phase = "quality_assurance"
	// PhaseIntegration assembles documentation and deployment artifacts.
	PhaseIntegration Phase = "integration"
)

// Valid returns true if the phase is a known value.
func (p Phase) Valid() bool {
	switch p {
	case PhaseResearch, PhaseSpecification, PhaseDevelopment,
		PhaseQAPreparation, PhaseQualityAssurance, PhaseIntegration:
		return true
	default:
		return false
	}
}
