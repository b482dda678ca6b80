// Package sketches holds the built-in gallery sketches and the script paths
// that install them.
package sketches

import "folio/internal/art"

// Scripts maps each built-in script path to its installer.
func Scripts() map[string]art.Installer {
	return map[string]art.Installer{
		"/art/sketches/neon-orbits.js": func(r *art.Registry) { r.Register(NeonOrbitsID, NewNeonOrbits) },
		"/art/sketches/matrix-flow.js": func(r *art.Registry) { r.Register(MatrixFlowID, NewMatrixFlow) },
	}
}
