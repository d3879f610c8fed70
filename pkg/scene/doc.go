// Package scene defines the host-owned scene model that render scripts
// manipulate: mesh, light and camera objects, materials, the world
// background and the current render settings. A scene lives for one process
// and has no persistence of its own.
package scene
