// Package telemetry provides the OpenTelemetry tracing helpers that
// ai.GenerateText and ai.GenerateObject record LM calls with. A call whose
// Settings are nil or disabled records on a no-op tracer; the Generation
// Workflow passes no Settings.
package telemetry

// Settings configures tracing for a single operation. Disabled by default.
type Settings struct {
	IsEnabled     bool
	RecordInputs  bool
	RecordOutputs bool
	FunctionID    string
}

// DefaultSettings returns Settings with tracing enabled and full recording,
// the default posture for a service-side workflow.
func DefaultSettings() *Settings {
	return &Settings{IsEnabled: true, RecordInputs: true, RecordOutputs: true}
}
