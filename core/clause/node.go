package clause

import (
	"github.com/asaidimu/go-cypher/core/params"
)

// NodePattern describes a node: (name:Label1:Label2 { key: $value }).
type NodePattern struct {
	base
	spec patternSpec
}

var _ Pattern = (*NodePattern)(nil)

// Node creates a node pattern. Every part is optional; Node() renders "()".
func Node(opts ...PatternOption) *NodePattern {
	n := &NodePattern{spec: newPatternSpec(opts)}
	if n.spec.length != nil {
		n.spec.fail("path length is only valid on relationships")
	}
	n.init(n.render)
	return n
}

func (n *NodePattern) render(s *params.Scope) (string, error) {
	if n.spec.err != nil {
		return "", n.spec.err
	}
	return "(" + joinParts(n.spec.variable(), renderConditions(s, n.spec.conditions)) + ")", nil
}
