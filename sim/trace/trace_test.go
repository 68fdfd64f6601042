package trace

import (
	"testing"
)

func TestSimulationTrace_RecordArrival_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for decisions
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})

	// WHEN an arrival record is recorded
	st.RecordArrival(ArrivalRecord{IndividualID: 1, Clock: 0.5, Node: 2, Admitted: true})

	// THEN the trace contains one arrival record with correct data
	if len(st.Arrivals) != 1 {
		t.Fatalf("expected 1 arrival, got %d", len(st.Arrivals))
	}
	if st.Arrivals[0].Node != 2 {
		t.Errorf("expected node 2, got %d", st.Arrivals[0].Node)
	}
	if !st.Arrivals[0].Admitted {
		t.Error("expected admitted=true")
	}
}

func TestSimulationTrace_RecordRouting_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for decisions
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})

	// WHEN a routing record is recorded
	st.RecordRouting(RoutingRecord{IndividualID: 7, Clock: 2, From: 1, To: 3})

	// THEN the trace contains one routing record with correct data
	if len(st.Routings) != 1 {
		t.Fatalf("expected 1 routing, got %d", len(st.Routings))
	}
	if st.Routings[0].To != 3 {
		t.Errorf("expected destination 3, got %d", st.Routings[0].To)
	}
}

func TestSimulationTrace_MultipleRecords_PreservesOrder(t *testing.T) {
	// GIVEN a trace
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})

	// WHEN multiple records are added
	st.RecordBlock(BlockRecord{IndividualID: 4, Clock: 1.0, From: 1, To: 2, QueuePos: 1})
	st.RecordBlock(BlockRecord{IndividualID: 5, Clock: 1.5, From: 3, To: 2, QueuePos: 2})
	st.RecordUnblock(UnblockRecord{IndividualID: 4, Clock: 2.0, From: 1, To: 2, Waited: 1.0})

	// THEN order is preserved within each kind
	if len(st.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(st.Blocks))
	}
	if st.Blocks[0].IndividualID != 4 || st.Blocks[1].IndividualID != 5 {
		t.Errorf("blocks out of order: %+v", st.Blocks)
	}
	if len(st.Unblocks) != 1 || st.Unblocks[0].IndividualID != 4 {
		t.Errorf("unexpected unblocks: %+v", st.Unblocks)
	}
}

func TestIsValidTraceLevel(t *testing.T) {
	tests := []struct {
		level string
		want  bool
	}{
		{"none", true},
		{"decisions", true},
		{"", true},
		{"verbose", false},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := IsValidTraceLevel(tt.level); got != tt.want {
				t.Errorf("IsValidTraceLevel(%q) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestTraceConfig_Enabled(t *testing.T) {
	if (TraceConfig{Level: TraceLevelNone}).Enabled() {
		t.Error("none level must be disabled")
	}
	if (TraceConfig{}).Enabled() {
		t.Error("empty level must be disabled")
	}
	if !(TraceConfig{Level: TraceLevelDecisions}).Enabled() {
		t.Error("decisions level must be enabled")
	}
}
