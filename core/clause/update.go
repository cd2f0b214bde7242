package clause

import (
	"fmt"
	"strings"

	"github.com/asaidimu/go-cypher/core/params"
)

// DeleteOptions configures a DELETE clause.
type DeleteOptions struct {
	Detach bool // Render DETACH DELETE.
}

// Delete renders DELETE (or DETACH DELETE) over variables.
type Delete struct {
	base
	variables []string
	options   DeleteOptions
}

// NewDelete creates a DELETE clause.
func NewDelete(variables []string, options DeleteOptions) *Delete {
	d := &Delete{variables: variables, options: options}
	d.init(d.compile)
	return d
}

func (d *Delete) compile(*params.Scope) (string, error) {
	vars := nonEmpty(d.variables)
	if len(vars) == 0 {
		return "", fmt.Errorf("%w: DELETE requires at least one variable", ErrInvalidClause)
	}
	keyword := "DELETE "
	if d.options.Detach {
		keyword = "DETACH DELETE "
	}
	return keyword + strings.Join(vars, ", "), nil
}

// RemoveProperties lists what a REMOVE clause strips from variables.
type RemoveProperties struct {
	// Labels removes labels: {"n": {"Admin"}} renders n:Admin.
	Labels map[string][]string
	// Properties removes properties: {"n": {"age"}} renders n.age.
	Properties map[string][]string
}

// Remove renders REMOVE.
type Remove struct {
	base
	props RemoveProperties
}

// NewRemove creates a REMOVE clause.
func NewRemove(props RemoveProperties) *Remove {
	r := &Remove{props: props}
	r.init(r.compile)
	return r
}

func (r *Remove) compile(*params.Scope) (string, error) {
	var parts []string
	for _, key := range sortedKeys(r.props.Labels) {
		if labels := nonEmpty(r.props.Labels[key]); len(labels) > 0 {
			parts = append(parts, key+":"+strings.Join(labels, ":"))
		}
	}
	for _, key := range sortedKeys(r.props.Properties) {
		for _, prop := range nonEmpty(r.props.Properties[key]) {
			parts = append(parts, key+"."+prop)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("%w: REMOVE requires at least one label or property", ErrInvalidClause)
	}
	return "REMOVE " + strings.Join(parts, ", "), nil
}
