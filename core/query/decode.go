package query

import (
	"fmt"

	"github.com/asaidimu/go-cypher/utils"
)

// Decode converts records into structs of type T using their JSON field
// tags. Records are usually projected with RETURN n.name AS name so that
// their keys match the struct fields.
func Decode[T any](records []Record) ([]T, error) {
	out := make([]T, 0, len(records))
	for i, r := range records {
		v, err := utils.MapToStruct[T](r)
		if err != nil {
			return nil, fmt.Errorf("decode record %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// DecodeFirst decodes a single record, as returned by Query.First. A nil
// record decodes to nil without error.
func DecodeFirst[T any](record Record) (*T, error) {
	if record == nil {
		return nil, nil
	}
	v, err := utils.MapToStruct[T](record)
	if err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &v, nil
}
