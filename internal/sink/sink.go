// ABOUTME: Output sink that appends report lines next to each monitored source.
// ABOUTME: Owns the <stem>-agg.log naming convention for aggregation outputs.

package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// aggMarker tags aggregation outputs so discovery can skip them.
const aggMarker = "-agg"

// Sink appends one formatted report line to the output destination
// belonging to a monitored source file.
type Sink interface {
	Append(source, stamp, message string) error
}

// FileSink writes each source's reports to a sibling aggregation file,
// created on first write and opened in append mode per line. Stateless,
// so it is safe for concurrent use from multiple tailers and the pruner.
type FileSink struct{}

// NewFileSink returns a sink writing to per-source sibling files.
func NewFileSink() *FileSink {
	return &FileSink{}
}

// Append writes "[stamp] message" to the source's aggregation file.
func (s *FileSink) Append(source, stamp, message string) error {
	dest := OutputPath(source)

	f, err := os.OpenFile(dest, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening output file %s: %w", dest, err)
	}

	_, werr := fmt.Fprintf(f, "[%s] %s\n", stamp, message)
	cerr := f.Close()
	if werr != nil {
		return fmt.Errorf("appending to %s: %w", dest, werr)
	}
	if cerr != nil {
		return fmt.Errorf("closing %s: %w", dest, cerr)
	}
	return nil
}

// OutputPath returns the aggregation output file for a source log:
// the source's base name with an "-agg" suffix and a .log extension,
// in the same directory.
func OutputPath(source string) string {
	base := filepath.Base(source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(source), stem+aggMarker+".log")
}

// IsOutput reports whether path names an aggregation output file.
// Discovery uses this to keep the tool from tailing its own output.
func IsOutput(path string) bool {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.Contains(stem, aggMarker)
}
