// Package snapconfig loads configuration files through a compile-once,
// map-many cache.
//
// The first load of a source file parses it (JSON, YAML, TOML, INI or
// dotenv), compiles the tree into a self-contained binary image and writes it
// next to the source with a ".snapconfig" suffix via an atomic
// temp-write-then-rename. Every later load memory-maps that image and
// navigates it in place: no parsing, no tree allocation, and identical bytes
// shared between processes by the page cache.
//
// # Quick start
//
//	cfg, err := snapconfig.Load("app.json")
//	if err != nil {
//	    return err
//	}
//	defer cfg.Close()
//
//	host, _ := cfg.GetPath("database.host") // zero-copy view
//	fmt.Println(host.AsString())
//
// Staleness and cache corruption are self-healing: a bad or outdated cache
// is silently recompiled from source. Only a missing or unparsable source is
// surfaced as an error.
//
// # Ownership
//
// All views returned by a Config borrow from its mapping and become invalid
// at Close. Use View.ToTree to copy data out when it must outlive the
// handle.
package snapconfig
