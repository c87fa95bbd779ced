// Package mobiledoc reads and writes posts in the mobiledoc JSON format.
//
// A mobiledoc is a versioned JSON object. Markups, atoms and cards are
// stored once in top-level tables and referenced by index from sections:
//
//	{
//	  "version": "0.3.2",
//	  "markups": [["b"], ["a", ["href", "https://example.com"]]],
//	  "atoms":   [["mention", "@bob", {"id": 7}]],
//	  "cards":   [["hr", {}]],
//	  "sections": [
//	    [1, "p", [[0, [0], 1, "bold"], [1, [], 0, 0]], ["data-md-text-align", "center"]],
//	    [3, "ul", [[[0, [], 0, "item"]]]],
//	    [10, 0],
//	    [2, "cat.png"]
//	  ]
//	}
//
// Each marker is [kind, opened markup indexes, closed markup count, value],
// where kind 0 is text and kind 1 is an atom whose value indexes the atom
// table. Markups open and close in stack order.
//
// Parse accepts versions 0.2.0, 0.3.0, 0.3.1 and 0.3.2. Render only writes
// 0.3.2. Blank markers are dropped on render and section attributes are
// written in sorted order, so rendering is deterministic.
package mobiledoc
