// Package project reads and writes project documents.
//
// A project document is versioned JSON holding every module graph of a
// project plus editor settings:
//
//	{
//	  "version": "1.0.0",
//	  "created": "2025-03-01T09:30:00Z",
//	  "modified": "2025-03-01T10:02:11Z",
//	  "name": "scene",
//	  "description": "",
//	  "graph": {"moduleList": {"main": {"nodes": [...], "connections": [...]}}},
//	  "editorSettings": {"viewport": {"x": 0, "y": 0, "zoom": 1}}
//	}
//
// [Serialize] always writes moduleList as an object in module order.
// [Deserialize] also accepts the array form, node types under "name" or
// "type", and connections under "connections" or "edges".
//
// [Load] is the full loading path: parse (optionally repairing malformed
// JSON), migrate legacy documents with pkg/migrate, [Check] the structure,
// then deserialize into a fresh [modules.Collection]. It never touches an
// existing collection, so a failed load leaves the caller's project as it
// was.
package project
