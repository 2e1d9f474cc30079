package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"runtime/debug"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/playperu/cafefinder/internal/cafefinder"
	"github.com/playperu/cafefinder/internal/output"
)

type fakeCafes struct {
	cafes  []cafefinder.Cafe
	err    error
	source string
}

func (f *fakeCafes) Fetch(_ context.Context, source string) ([]cafefinder.Cafe, error) {
	f.source = source
	return f.cafes, f.err
}

type fakeGeocoder map[string]cafefinder.Position

func (f fakeGeocoder) Geocode(_ context.Context, address string) (cafefinder.Position, error) {
	if p, ok := f[address]; ok {
		return p, nil
	}
	return cafefinder.Position{}, cafefinder.ErrAddressNotFound
}

func testDeps() (Dependencies, *fakeCafes) {
	cafes := &fakeCafes{cafes: []cafefinder.Cafe{
		{ID: "far", Name: "Far Cafe", Lat: -12.15, Lng: -77.02, Rating: 4.5},
		{ID: "near", Name: "Near Cafe", Lat: -12.047, Lng: -77.043, Address: "Jr. de la Union"},
		{ID: "near", Name: "Duplicate"},
	}}
	return Dependencies{
		Cafes:    cafes,
		Geocoder: fakeGeocoder{"Plaza de Armas": {Lat: -12.0464, Lng: -77.0428}},
		Version:  "v1.2.3",
	}, cafes
}

func run(t *testing.T, deps Dependencies, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(), args, deps, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestNearbyTable(t *testing.T) {
	deps, cafes := testDeps()

	code, out, errOut := run(t, deps, "nearby", "--lat", "-12.0464", "--lng", "-77.0428", "--cafes", "x.json")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if cafes.source != "x.json" {
		t.Errorf("source = %q", cafes.source)
	}

	lines := strings.Split(out, "\n")
	if lines[0] != "Nearby Cafes (2)" {
		t.Fatalf("title = %q", lines[0])
	}
	if !strings.HasPrefix(lines[2], "1\tNear Cafe\t0.1 km away") {
		t.Errorf("first row = %q", lines[2])
	}
	if !strings.Contains(lines[3], "⭐ 4.5/5") {
		t.Errorf("second row = %q", lines[3])
	}
	if !strings.Contains(out, "warning: ") {
		t.Error("expected a warning for the duplicate id")
	}
}

func TestNearbyJSONWithAddress(t *testing.T) {
	deps, _ := testDeps()

	code, out, errOut := run(t, deps, "nearby", "--address", "Plaza de Armas", "--limit", "1", "--format", "json")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}

	var env struct {
		Meta     output.Meta  `json:"meta"`
		Data     nearbyResult `json:"data"`
		Warnings []string     `json:"warnings"`
	}
	if err := json.Unmarshal([]byte(out), &env); err != nil {
		t.Fatalf("decoding: %v\n%s", err, out)
	}
	if env.Data.Count != 1 || env.Data.Cafes[0].ID != "near" || env.Data.Cafes[0].DistanceKm == nil {
		t.Fatalf("data = %+v", env.Data)
	}
	if len(env.Warnings) != 1 {
		t.Errorf("warnings = %v", env.Warnings)
	}
	if env.Meta.Command != "nearby" || env.Meta.Reference == nil || *env.Meta.Reference != env.Data.Reference {
		t.Errorf("meta = %+v, want nearby with reference %v", env.Meta, env.Data.Reference)
	}
}

func TestNearbyYAML(t *testing.T) {
	deps, _ := testDeps()

	code, out, errOut := run(t, deps, "nearby", "--lat", "-12.15", "--lng", "-77.02", "-f", "yaml")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	var env struct {
		Data nearbyResult `yaml:"data"`
	}
	if err := yaml.Unmarshal([]byte(out), &env); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if env.Data.Cafes[0].ID != "far" {
		t.Errorf("first = %+v", env.Data.Cafes[0])
	}
}

func TestNearbyErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no reference", []string{"nearby"}, "at least one of the flags"},
		{"lat without lng", []string{"nearby", "--lat", "1"}, "must all be set"},
		{"lat and address", []string{"nearby", "--lat", "1", "--lng", "1", "--address", "x"}, "none of the others can be"},
		{"out of range", []string{"nearby", "--lat", "100", "--lng", "1"}, "out of range"},
		{"unknown address", []string{"nearby", "--address", "Atlantis"}, "address not found"},
		{"bad format", []string{"nearby", "--lat", "1", "--lng", "1", "--format", "xml"}, "unsupported format"},
		{"negative limit", []string{"nearby", "--lat", "1", "--lng", "1", "--limit", "-2"}, "must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps, _ := testDeps()
			code, _, errOut := run(t, deps, tt.args...)
			if code != 1 {
				t.Fatalf("exit = %d, want 1", code)
			}
			if !strings.Contains(errOut, tt.want) {
				t.Errorf("stderr = %q, want %q", errOut, tt.want)
			}
		})
	}
}

func TestNearbySourceError(t *testing.T) {
	deps, cafes := testDeps()
	cafes.err = errors.New("loading cafe data: boom")

	code, _, errOut := run(t, deps, "nearby", "--lat", "1", "--lng", "1")
	if code != 1 || !strings.Contains(errOut, "boom") {
		t.Fatalf("exit %d: %s", code, errOut)
	}
}

func TestDistance(t *testing.T) {
	deps, _ := testDeps()

	code, out, errOut := run(t, deps, "distance", "--from", "40.7128,-74.0060", "--to", "51.5074,-0.1278")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if !strings.HasPrefix(out, "557") || !strings.HasSuffix(strings.TrimSpace(out), " km") {
		t.Errorf("out = %q", out)
	}

	code, out, _ = run(t, deps, "distance", "--from", "0,0", "--to", "0,0", "--format", "json")
	if code != 0 || !strings.Contains(out, `"km": 0`) {
		t.Errorf("json out = %q", out)
	}

	code, _, errOut = run(t, deps, "distance", "--from", "nope", "--to", "0,0")
	if code != 1 || !strings.Contains(errOut, "--from") {
		t.Errorf("exit %d: %s", code, errOut)
	}
}

func TestVersionAndUnknownCommand(t *testing.T) {
	deps, _ := testDeps()

	code, out, _ := run(t, deps, "--version")
	if code != 0 || strings.TrimSpace(out) != "v1.2.3" {
		t.Errorf("version: exit %d out %q", code, out)
	}

	code, _, errOut := run(t, deps, "brew")
	if code != 2 || !strings.Contains(errOut, "No such command 'brew'") {
		t.Errorf("unknown: exit %d err %q", code, errOut)
	}
}

func TestResolvedVersion(t *testing.T) {
	orig := readBuildInfo
	t.Cleanup(func() { readBuildInfo = orig })

	tests := []struct {
		name     string
		injected string
		info     *debug.BuildInfo
		want     string
	}{
		{
			name:     "injected wins",
			injected: "v1.2.3",
			info:     &debug.BuildInfo{Main: debug.Module{Version: "v9.9.9"}},
			want:     "v1.2.3",
		},
		{
			name:     "module version",
			injected: devVersion,
			info:     &debug.BuildInfo{Main: debug.Module{Version: "v0.4.0"}},
			want:     "v0.4.0",
		},
		{
			name: "dirty revision",
			info: &debug.BuildInfo{
				Main: debug.Module{Version: "(devel)"},
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "0123456789abcdef"},
					{Key: "vcs.modified", Value: "true"},
				},
			},
			want: "0123456789ab-dirty",
		},
		{
			name: "no build info",
			want: devVersion,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			readBuildInfo = func() (*debug.BuildInfo, bool) { return tt.info, tt.info != nil }
			if got := resolvedVersion(tt.injected); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
