// Package dedupe provides the shared occurrence cache that suppresses
// repeated identical log messages within a sliding time window.
package dedupe
