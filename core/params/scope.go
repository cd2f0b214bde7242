package params

// Scope registers values into a Bag while keeping track of the parameters it
// produced. Each clause renders through its own Scope so that its QueryObject
// carries only the parameters it introduced.
type Scope struct {
	bag    *Bag
	params []*Parameter
}

// Register binds value in the underlying bag under a name derived from hint.
func (s *Scope) Register(hint string, value any) *Parameter {
	p := s.bag.RegisterAs(hint, value)
	s.params = append(s.params, p)
	return p
}

// Bag returns the bag this scope writes into.
func (s *Scope) Bag() *Bag {
	return s.bag
}

// Parameters returns the parameters registered through this scope, in
// registration order.
func (s *Scope) Parameters() []*Parameter {
	out := make([]*Parameter, len(s.params))
	copy(out, s.params)
	return out
}

// Params returns the name/value pairs registered through this scope.
func (s *Scope) Params() map[string]any {
	out := make(map[string]any, len(s.params))
	for _, p := range s.params {
		out[p.Name] = p.Value
	}
	return out
}
