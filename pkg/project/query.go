package project

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"

	"github.com/matzehuels/shadergraph/pkg/errors"
)

// Query runs a jq expression over a project document and returns every
// value it yields. doc may be a *Document or a generic JSON value.
//
//	project.Query(ctx, doc, `.graph.moduleList[].nodes[] | select(.name == "Sphere3D") | .id`)
func Query(ctx context.Context, doc any, expr string) ([]any, error) {
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid jq expression %q", expr)
	}
	input, err := generic(doc)
	if err != nil {
		return nil, err
	}

	var out []any
	iter := query.RunWithContext(ctx, input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			var halt *gojq.HaltError
			if errors.As(err, &halt) && halt.Value() == nil {
				break
			}
			return nil, fmt.Errorf("jq error: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}

// generic converts typed documents into the map/slice form gojq walks.
func generic(doc any) (any, error) {
	switch doc.(type) {
	case map[string]any, []any, nil:
		return doc, nil
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return v, nil
}
