package output

import "github.com/bimmerbailey/jigyokei/internal/analysis"

// AnalysisResponse is the body returned for a result with at least one risk.
type AnalysisResponse struct {
	RawAnalysis              analysis.Result `json:"raw_analysis" yaml:"raw_analysis"`
	RiskPresentationText     string          `json:"risk_presentation_text" yaml:"risk_presentation_text"`
	SolutionPresentationText string          `json:"solution_presentation_text" yaml:"solution_presentation_text"`
}

// ErrorResponse is the body returned when no risk was detected and for
// request errors.
type ErrorResponse struct {
	Error string `json:"error" yaml:"error"`
}

// BuildResponse returns the body shared by the HTTP service, the watcher and
// `analyze --format json`: an ErrorResponse carrying NoRisksMessage for an
// empty result, otherwise an AnalysisResponse.
func BuildResponse(r analysis.Result) any {
	if r.Empty() {
		return ErrorResponse{Error: NoRisksMessage}
	}
	return AnalysisResponse{
		RawAnalysis:              r,
		RiskPresentationText:     RiskList(r.Risks),
		SolutionPresentationText: SolutionList(r.Risks),
	}
}
