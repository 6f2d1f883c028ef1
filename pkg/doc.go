// Package pkg provides the core libraries of the shadergraph node editor.
//
// # Overview
//
// A shadergraph project is a set of named modules, each holding a graph of
// typed nodes whose sockets are wired together. The pkg directory is
// organized into three areas:
//
//  1. Editor core: [nodes] (definitions, registry, modes), [graph] (nodes,
//     edges, factory) and [modules] (the named module collection)
//  2. Persistence: [project] (document format, load and save), [migrate]
//     (legacy file conversion) and [store] (project backends)
//  3. Infrastructure: [errors], [cache], [observability], [buildinfo] and
//     [export/dot]
//
// # Architecture
//
// The typical data flow when opening a project:
//
//	Project file or store
//	         ↓
//	    [migrate] package (legacy shape → current format)
//	         ↓
//	    [project] package (check + deserialize)
//	         ↓
//	    [modules] collection of [graph] graphs, typed by a [nodes] registry
//	         ↓
//	    edits, then [project.Serialize] back to JSON
//
// # Quick Start
//
//	reg := catalog.MustDefault()
//	loaded, err := project.ImportFile(ctx, "scene.asmblr.json", project.Options{Resolver: reg})
//	if err != nil {
//	    return err
//	}
//	g := loaded.Collection.Live()
//	sphere, _ := graph.NewFactory(reg).Create("Sphere3D", nil, nil)
//	g.AddNode(*sphere)
//	doc := project.Serialize(loaded.Collection, project.DefaultViewport, loaded.Document)
//	_, err = project.ExportFile(ctx, doc, "scene")
//
// [nodes]: github.com/matzehuels/shadergraph/pkg/nodes
// [graph]: github.com/matzehuels/shadergraph/pkg/graph
// [modules]: github.com/matzehuels/shadergraph/pkg/modules
// [project]: github.com/matzehuels/shadergraph/pkg/project
// [project.Serialize]: github.com/matzehuels/shadergraph/pkg/project#Serialize
// [migrate]: github.com/matzehuels/shadergraph/pkg/migrate
// [store]: github.com/matzehuels/shadergraph/pkg/store
// [errors]: github.com/matzehuels/shadergraph/pkg/errors
// [cache]: github.com/matzehuels/shadergraph/pkg/cache
// [observability]: github.com/matzehuels/shadergraph/pkg/observability
// [buildinfo]: github.com/matzehuels/shadergraph/pkg/buildinfo
// [export/dot]: github.com/matzehuels/shadergraph/pkg/export/dot
package pkg
