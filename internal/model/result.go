package model

// FailedCondition is one leaf condition that evaluated false, carried in a
// business-rule rejection so callers can explain exactly what blocked the
// advancement.
type FailedCondition struct {
	Fact     string `json:"fact" yaml:"fact"`
	Operator string `json:"operator" yaml:"operator"`
	Value    any    `json:"value" yaml:"value"`
}

// FailureReason names a failed rule and its failed leaf conditions.
type FailureReason struct {
	Rule             string            `json:"rule" yaml:"rule"`
	FailedConditions []FailedCondition `json:"failedConditions" yaml:"failed_conditions"`
}

// NextStep hints at what the caller should do after a successful advancement:
// after a close, the successor phases are candidates for an open.
type NextStep struct {
	Operation string          `json:"operation,omitempty" yaml:"operation,omitempty"`
	Phases    []PhaseInstance `json:"phases" yaml:"phases"`
}

// AdvancementResult is the outcome of one advancement attempt. Success=false
// means a business rule rejected the transition; hard failures (unknown
// phase, fact fetch errors) are returned as Go errors instead and never
// produce a result.
type AdvancementResult struct {
	Success        bool            `json:"success" yaml:"success"`
	Message        string          `json:"message" yaml:"message"`
	Detail         string          `json:"detail,omitempty" yaml:"detail,omitempty"`
	FailureReasons []FailureReason `json:"failureReasons,omitempty" yaml:"failure_reasons,omitempty"`
	UpdatedPhases  []PhaseInstance `json:"updatedPhases,omitempty" yaml:"updated_phases,omitempty"`
	Next           NextStep        `json:"next" yaml:"next"`
}
