package sim

import "fmt"

// ServerKey identifies a server across the whole network.
type ServerKey struct {
	Node  int // owning node ID
	Index int // 1-based position among the node's servers
}

func (k ServerKey) String() string {
	return fmt.Sprintf("Server %d at Node %d", k.Index, k.Node)
}

// Server is one parallel service channel of a node. Servers are created with
// their node and live for the whole run; attach and detach only change the
// occupant.
type Server struct {
	key      ServerKey
	busy     bool
	occupant *Individual
}

func newServer(node, index int) *Server {
	return &Server{key: ServerKey{Node: node, Index: index}}
}

// Key returns the server's network-wide identity.
func (s *Server) Key() ServerKey {
	return s.key
}

// Busy reports whether an individual occupies the server, either in service
// or blocked.
func (s *Server) Busy() bool {
	return s.busy
}

// Occupant returns the individual using the server, or nil when idle.
func (s *Server) Occupant() *Individual {
	return s.occupant
}

func (s *Server) String() string {
	return s.key.String()
}
