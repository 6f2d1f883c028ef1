package project_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/shadergraph/pkg/nodes/catalog"
	"github.com/matzehuels/shadergraph/pkg/project"
)

func ExampleLoad_legacy() {
	// A legacy file: a bare module list with a retired node type.
	data := []byte(`{"moduleList":[{"name":"main","nodes":[{"id":"p","name":"Plane3D","data":{}}]}]}`)

	loaded, err := project.Load(context.Background(), data, project.Options{Resolver: catalog.MustDefault()})
	if err != nil {
		fmt.Println(err)
		return
	}
	n, _ := loaded.Collection.Live().Node("p")
	fmt.Println("Modules:", loaded.Collection.Names())
	fmt.Println("Type:", n.Type)
	fmt.Println("Version:", loaded.Document.Version)
	// Output:
	// Modules: [main]
	// Type: PlaneV23D
	// Version: 1.0.0
}
