// Package cli implements the cafefinder command line: ranking cafes and
// measuring distances without running the server.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"

	"github.com/playperu/cafefinder/internal/cafefinder"
)

var unknownCommandPattern = regexp.MustCompile(`unknown command "([^"]+)"`)

// CafeSource fetches the cafe document from a path or URL.
type CafeSource interface {
	Fetch(ctx context.Context, source string) ([]cafefinder.Cafe, error)
}

// Geocoder resolves addresses to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (cafefinder.Position, error)
}

// Dependencies wires runtime services.
type Dependencies struct {
	Cafes    CafeSource
	Geocoder Geocoder
	Version  string
}

var errVersionShown = errors.New("version shown")

// Execute runs the CLI with injected dependencies and returns the process
// exit code.
func Execute(ctx context.Context, args []string, deps Dependencies, stdout io.Writer, stderr io.Writer) int {
	cmd := NewRootCommand(deps)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil || errors.Is(err, errVersionShown) {
		return 0
	}

	if matches := unknownCommandPattern.FindStringSubmatch(err.Error()); len(matches) > 1 {
		_, _ = fmt.Fprintf(stderr, "No such command '%s'\n", matches[1])
		return 2
	}

	_, _ = fmt.Fprintln(stderr, "error:", err)
	return 1
}
