// Package genealogy is the relationship graph engine of a family tree.
//
// It keeps typed relationship edges bidirectionally consistent, rejects edges
// that would break genealogical validity, and answers graph queries: shortest
// relationship path, ancestor and descendant closure, and depth-bounded
// subtree rendering. Persistence is reached through the Store interface; the
// package owns no storage of its own apart from MemoryStore.
package genealogy
