package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataRecord_Derived(t *testing.T) {
	rec := DataRecord{
		ArrivalDate:      1.5,
		ServiceStartDate: 2.0,
		ServiceTime:      0.75,
		ServiceEndDate:   2.75,
		ExitDate:         4.0,
	}

	assert.Equal(t, 0.5, rec.Wait())
	assert.Equal(t, 1.25, rec.Blocked())
}

func TestRecordLog_ForNode(t *testing.T) {
	log := NewRecordLog()
	log.Emit(nil, DataRecord{IndividualID: 1, NodeID: 1})
	log.Emit(nil, DataRecord{IndividualID: 2, NodeID: 2})
	log.Emit(nil, DataRecord{IndividualID: 3, NodeID: 1})

	got := log.ForNode(1)

	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].IndividualID)
	assert.Equal(t, 3, got[1].IndividualID)
	assert.Empty(t, log.ForNode(7))
}

type sinkSpy struct {
	ids []int
}

func (s *sinkSpy) Emit(ind *Individual, _ DataRecord) {
	s.ids = append(s.ids, ind.ID)
}

func TestNetwork_SinksReceiveRecords(t *testing.T) {
	spy := &sinkSpy{}
	net, err := NewNetwork(NetworkConfig{
		Nodes:    []NodeConfig{NewNodeConfig(1, Unbounded, routeTo(1, 0))},
		Classes:  1,
		Services: [][]Sampler{{constSampler(1)}},
		Run:      NewRunConfig(0, 1),
		Sinks:    []RecordSink{spy},
	})
	require.NoError(t, err)
	accept(t, net.Node(1), 7, 0)

	require.NoError(t, net.Run())

	assert.Equal(t, []int{7}, spy.ids)
	assert.Len(t, net.Log.Records, 1)
}
