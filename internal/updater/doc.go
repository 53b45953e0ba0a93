// Package updater performs non-blocking release checks against GitHub
// and persists the outcome so startup never waits on the network.
package updater
