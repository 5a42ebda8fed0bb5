// Package hooks implements lifecycle-managed element behaviors.
//
// A hook is attached to one element and sees three lifecycle calls:
// Mounted when the element first appears, Updated after the server patches
// it, and Destroyed when it goes away. Hooks never reach for a global
// socket; a Session injects its Channel, logger, clock and metrics into
// every hook it mounts.
package hooks
