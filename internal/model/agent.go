package model

import "time"

// AgentState is the liveness state of a pipeline stage.
type AgentState string

// Agent state constants.
const (
	AgentActive     AgentState = "active"
	AgentIdle       AgentState = "idle"
	AgentProcessing AgentState = "processing"
)

// Stage names as reported in agent statuses.
const (
	AgentMonitoring     = "Monitoring Agent"
	AgentAnomaly        = "Anomaly Detection Agent"
	AgentRisk           = "Risk Prediction Agent"
	AgentReasoning      = "Reasoning Agent"
	AgentRecommendation = "Action Recommendation Agent"
)

// AgentNames lists the stages in pipeline order.
var AgentNames = []string{
	AgentMonitoring,
	AgentAnomaly,
	AgentRisk,
	AgentReasoning,
	AgentRecommendation,
}

// AgentStatus is the per-stage liveness record. It is observability only.
type AgentStatus struct {
	LastRun      time.Time  `json:"lastRun"`
	Name         string     `json:"name"`
	Status       AgentState `json:"status"`
	Observations int        `json:"observations"`
}

// AgentStatusUpdate changes a status record. Observations are added, not replaced,
// so concurrent writers never lose counts.
type AgentStatusUpdate struct {
	Status            *AgentState
	LastRun           *time.Time
	ObservationsAdded int
}
