// Engine wiring for the partitiondb CLI: a thin layer translating
// cobra flags into registry/partition calls, the way the teacher's
// internal/cli/engine.go wires its core managers into command bodies.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cloudfs/cloudfs/internal/registry"
)

// newRegistry builds a registry rooted at the resolved base directory.
func newRegistry() *registry.Registry {
	size := cacheSize
	if size < 0 {
		size = -1
	}
	return registry.New(baseDir, size)
}

// logVerbose prints an informational line when --verbose is set, the
// way the teacher's engine.go gates its own extra status lines on its
// verbose global.
func logVerbose(format string, args ...any) {
	if verbose {
		fmt.Printf(format+"\n", args...)
	}
}

// RunInit initializes the base directory partitions are created under
// (spec section 6's directory-multiplexer collaborator). If path is
// empty, the resolved --base-dir flag value is used.
func RunInit(path string) error {
	dir := baseDir
	if path != "" {
		dir = path
	}
	if dryRun {
		fmt.Printf("[DRY-RUN] Would initialize partitiondb base directory at: %s\n", dir)
		return nil
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to initialize base directory: %w", err)
	}
	logVerbose("initialized partitiondb base directory at: %s", dir)
	return nil
}

// parseValue decodes a JSON value from a command-line argument. Bare
// scalars ("42", "true", "\"plain string\"") and JSON objects/arrays
// are all accepted since spec section 3 treats values as opaque
// JSON-serializable data.
func parseValue(raw string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("invalid JSON value %q: %w", raw, err)
	}
	return v, nil
}

func printJSON(v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(raw))
	return nil
}
