package trace

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions captures arrivals, routing, blocking and unblocking.
	TraceLevelDecisions TraceLevel = "decisions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelDecisions: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// Enabled reports whether the config asks for any records at all.
func (c TraceConfig) Enabled() bool {
	return c.Level == TraceLevelDecisions
}

// SimulationTrace collects decision records during a run.
type SimulationTrace struct {
	Config   TraceConfig
	Arrivals []ArrivalRecord
	Routings []RoutingRecord
	Blocks   []BlockRecord
	Unblocks []UnblockRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:   config,
		Arrivals: make([]ArrivalRecord, 0),
		Routings: make([]RoutingRecord, 0),
		Blocks:   make([]BlockRecord, 0),
		Unblocks: make([]UnblockRecord, 0),
	}
}

// RecordArrival appends an arrival record.
func (st *SimulationTrace) RecordArrival(record ArrivalRecord) {
	st.Arrivals = append(st.Arrivals, record)
}

// RecordRouting appends a routing decision record.
func (st *SimulationTrace) RecordRouting(record RoutingRecord) {
	st.Routings = append(st.Routings, record)
}

// RecordBlock appends a blocking record.
func (st *SimulationTrace) RecordBlock(record BlockRecord) {
	st.Blocks = append(st.Blocks, record)
}

// RecordUnblock appends an unblocking record.
func (st *SimulationTrace) RecordUnblock(record UnblockRecord) {
	st.Unblocks = append(st.Unblocks, record)
}
