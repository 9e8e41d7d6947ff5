package engine

// ValidMessage is the message attached to every accepted path
const ValidMessage = "Path is valid"

// Score turns an interpreter verdict into the final result. An invalid
// verdict keeps its partial cost; a valid one is optimal only when the
// scenario declares an optimal MP and the cost matches it exactly.
func Score(v Verdict, solution Solution) Result {
	result := Result{
		IsValid:   v.Valid,
		Message:   v.Reason,
		TotalMP:   v.TotalCost,
		OptimalMP: solution.OptimalMP,
	}
	if !v.Valid {
		return result
	}

	result.Message = ValidMessage
	result.IsOptimal = solution.OptimalMP != nil && v.TotalCost == *solution.OptimalMP
	return result
}

// ValidatePuzzleSolution evaluates path against a scenario and scores it
func ValidatePuzzleSolution(path string, scenario *Scenario) Result {
	return Score(Interpret(path, scenario.Configuration), scenario.Solution)
}

// Evaluate is ValidatePuzzleSolution that also returns the verdict, for
// callers that want the step trace.
func Evaluate(path string, scenario *Scenario) (Result, Verdict) {
	v := Interpret(path, scenario.Configuration)
	return Score(v, scenario.Solution), v
}
