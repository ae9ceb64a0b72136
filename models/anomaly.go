package models

import "time"

// AnomalyKind enumerates the closed taxonomy of injectable anomalies.
type AnomalyKind string

const (
	AnomalyChannelConversionDrop    AnomalyKind = "channel_conversion_drop"
	AnomalyDeviceIssue              AnomalyKind = "device_issue"
	AnomalyTimeBased                AnomalyKind = "time_based_anomaly"
	AnomalyCountryBehaviorChange    AnomalyKind = "country_behavior_change"
	AnomalyDataCollectionGap        AnomalyKind = "data_collection_gap"
	AnomalyRetentionDrop            AnomalyKind = "retention_drop"
	AnomalyChannelEfficiencyDecline AnomalyKind = "channel_efficiency_decline"
	AnomalySignupConversionDrop     AnomalyKind = "signup_conversion_drop"
)

// AnomalyKinds lists the full taxonomy in a stable order.
func AnomalyKinds() []AnomalyKind {
	return []AnomalyKind{
		AnomalyChannelConversionDrop,
		AnomalyDeviceIssue,
		AnomalyTimeBased,
		AnomalyCountryBehaviorChange,
		AnomalyDataCollectionGap,
		AnomalyRetentionDrop,
		AnomalyChannelEfficiencyDecline,
		AnomalySignupConversionDrop,
	}
}

// AnomalyParams carries the concrete parameters of one injected anomaly.
// Only the fields relevant to the kind are set. The struct is serialized as
// JSON into anomaly_metadata.params.
type AnomalyParams struct {
	Channel    string  `json:"channel,omitempty"`
	Device     string  `json:"device,omitempty"`
	Country    string  `json:"country,omitempty"`
	EventName  string  `json:"eventName,omitempty"`
	DropRate   float64 `json:"dropRate,omitempty"`
	GapStart   int     `json:"gapStartHour,omitempty"`
	GapHours   int     `json:"gapHours,omitempty"`
	CohortDays int     `json:"cohortDays,omitempty"`
	FunnelStep string  `json:"funnelStep,omitempty"`
}

// AnomalyRecord is the sole contract with the problem-authoring collaborator.
// It carries natural-language descriptions and parameters, never SQL.
type AnomalyRecord struct {
	ID            int64         `json:"id"`
	ProblemDate   time.Time     `json:"problemDate"`
	ProductType   Vertical      `json:"productType"`
	AnomalyType   AnomalyKind   `json:"anomalyType"`
	Params        AnomalyParams `json:"params"`
	AffectedScope string        `json:"affectedScope"`
	Description   string        `json:"description"`
	Hint          string        `json:"hint"`
	Hints         []string      `json:"hints,omitempty"`
	RootCause     string        `json:"rootCause,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
}
