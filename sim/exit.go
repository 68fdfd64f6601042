package sim

import "fmt"

// ExitNode is the sink every route ends in. It never fills up.
type ExitNode struct {
	ID          int
	Individuals []*Individual // departed individuals, in departure order
}

func (e *ExitNode) String() string {
	return "Exit Node"
}

func (e *ExitNode) stationID() int { return e.ID }

func (e *ExitNode) hasRoom() bool { return true }

// Accept marks ind as departed at time now. ExitDate then holds the time the
// individual left the network.
func (e *ExitNode) Accept(ind *Individual, now float64) error {
	if ind.server != nil {
		return fmt.Errorf("%w: %s reached the exit holding %s", ErrInvariant, ind, ind.server)
	}
	ind.State = StateDeparted
	ind.ExitDate = At(now)
	e.Individuals = append(e.Individuals, ind)
	return nil
}
