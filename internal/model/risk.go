package model

// RiskAssessment annotates an anomaly with monetary impact and priority.
type RiskAssessment struct {
	Anomaly     Anomaly  `json:"anomaly"`
	RiskLevel   Severity `json:"riskLevel"`
	MonthlyLoss float64  `json:"monthlyLoss"`
	YearlyLoss  float64  `json:"yearlyLoss"`
	Urgency     int      `json:"urgency"`
}

// Explanation is the human-readable text attached to a risk.
type Explanation struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	AIExplanation  string `json:"aiExplanation"`
	Recommendation string `json:"recommendation"`
}

// Complete reports whether every field is non-empty.
func (e Explanation) Complete() bool {
	return e.Title != "" && e.Description != "" && e.AIExplanation != "" && e.Recommendation != ""
}

// ReasonedAlert is a risk assessment with its explanation.
type ReasonedAlert struct {
	Explanation
	Assessment RiskAssessment `json:"assessment"`
}

// Recommendation is an alert payload together with the actions the user may take.
// RequiresUserApproval is always true: nothing is ever executed on the user's behalf.
type Recommendation struct {
	SuggestedAction      string   `json:"suggestedAction"`
	AvailableActions     []string `json:"availableActions"`
	Alert                Alert    `json:"alert"`
	RequiresUserApproval bool     `json:"requiresUserApproval"`
}
