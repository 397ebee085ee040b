// Package pkg provides the core libraries for rostree dependency
// inspection.
//
// # Overview
//
// rostree discovers ROS 2 packages and resolves their dependency
// trees from package.xml manifests. The pkg directory is organized
// into:
//
//  1. [manifest] - package.xml parsing and dependency vocabulary
//  2. [workspace] - package discovery across install spaces and source trees
//  3. [tree] - recursive dependency tree construction
//  4. [graph] - node-link flattening and DOT/Mermaid/SVG export
//  5. [cache] - artifact caching backends
//  6. [errors] - structured error codes shared by CLI and web
//
// # Architecture
//
// The typical data flow:
//
//	install spaces / workspace src trees
//	         ↓
//	workspace.Finder (name → manifest path)
//	         ↓
//	manifest.ParseFile (path → declared dependencies)
//	         ↓
//	tree.Builder (recursive resolution, cycle and budget handling)
//	         ↓
//	graph / CLI / TUI / web rendering
package pkg
