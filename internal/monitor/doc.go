// Package monitor coordinates the lifecycle of the per-file tail
// workers and the background pruner, reconciling the discovered file
// set against running workers on a fixed tick and driving orderly
// shutdown.
package monitor
