package sim

// DataRecord is the immutable snapshot of one finished node visit.
type DataRecord struct {
	IndividualID     int
	Class            int
	NodeID           int
	ArrivalDate      float64
	ServiceTime      float64
	ServiceStartDate float64
	ServiceEndDate   float64 // ServiceStartDate + ServiceTime
	ExitDate         float64
}

func newDataRecord(ind *Individual, nodeID int) DataRecord {
	arrival, _ := ind.ArrivalDate.Value()
	start, _ := ind.ServiceStartDate.Value()
	exit, _ := ind.ExitDate.Value()
	return DataRecord{
		IndividualID:     ind.ID,
		Class:            ind.Class,
		NodeID:           nodeID,
		ArrivalDate:      arrival,
		ServiceTime:      ind.ServiceTime,
		ServiceStartDate: start,
		ServiceEndDate:   start + ind.ServiceTime,
		ExitDate:         exit,
	}
}

// Wait is the time spent queueing before service started.
func (r DataRecord) Wait() float64 {
	return r.ServiceStartDate - r.ArrivalDate
}

// Blocked is the time between the end of service and leaving the node.
func (r DataRecord) Blocked() float64 {
	return r.ExitDate - r.ServiceEndDate
}

// RecordSink receives a record every time an individual leaves a node.
type RecordSink interface {
	Emit(ind *Individual, rec DataRecord)
}

// RecordLog is a RecordSink that keeps every record in emission order.
type RecordLog struct {
	Records []DataRecord
}

// NewRecordLog creates an empty RecordLog.
func NewRecordLog() *RecordLog {
	return &RecordLog{Records: make([]DataRecord, 0)}
}

// Emit appends rec to the log.
func (l *RecordLog) Emit(_ *Individual, rec DataRecord) {
	l.Records = append(l.Records, rec)
}

// ForNode returns the records written by the given node, in emission order.
func (l *RecordLog) ForNode(nodeID int) []DataRecord {
	out := make([]DataRecord, 0)
	for _, r := range l.Records {
		if r.NodeID == nodeID {
			out = append(out, r)
		}
	}
	return out
}

// fanoutSink forwards every record to each member in order.
type fanoutSink []RecordSink

func (f fanoutSink) Emit(ind *Individual, rec DataRecord) {
	for _, s := range f {
		s.Emit(ind, rec)
	}
}
