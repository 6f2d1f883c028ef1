package project

import (
	"reflect"

	"github.com/google/jsonschema-go/jsonschema"
)

// Schema returns the JSON Schema of the current project format. The module
// list is described in its written object form.
func Schema() (*jsonschema.Schema, error) {
	module, err := jsonschema.For[Module](&jsonschema.ForOptions{})
	if err != nil {
		return nil, err
	}
	list := &jsonschema.Schema{
		Type:                 "object",
		Description:          "modules keyed by name",
		AdditionalProperties: module,
	}
	doc, err := jsonschema.For[Document](&jsonschema.ForOptions{
		TypeSchemas: map[reflect.Type]*jsonschema.Schema{
			reflect.TypeFor[ModuleList]():  list,
			reflect.TypeFor[*ModuleList](): list,
		},
	})
	if err != nil {
		return nil, err
	}
	doc.Title = "shadergraph project"
	return doc, nil
}
