// Package manifest records what went into a bundle.
//
// A manifest is written next to each rendered bundle. It names the
// effective targets, the modules in load order with the digest of each
// payload, the digest of the whole artifact and the diagnostics of the
// resolution that produced it. Output is deterministic: the same
// resolution and artifact always encode to the same bytes.
//
// Create a manifest from a resolution and its artifact:
//
//	m, err := manifest.FromResult("index", res, art)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := m.WriteFile("dist/index.manifest.json"); err != nil {
//	    log.Fatal(err)
//	}
//
// Check a bundle against a manifest read back from disk:
//
//	m, err := manifest.ReadFile("dist/index.manifest.json")
//	...
//	if err := m.Verify(art); err != nil {
//	    log.Fatal(err)
//	}
package manifest
