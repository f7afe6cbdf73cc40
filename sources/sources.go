package sources

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bcampbell/regomat/record"
)

// Transform turns one raw CSV row into zero or more records. Transforms
// are pure: no IO, no shared state, safe to call concurrently.
type Transform func(row map[string]string) ([]record.Record, error)

// Spec is everything the pipeline needs to run one source: its name,
// the static catalogue entry emitted at the start of each run, and the
// row transform.
type Spec struct {
	Name      string
	Source    record.Source
	Transform Transform
}

var registry = map[string]*Spec{}

// Register adds (or replaces) a spec in the registry. Call it again
// with a reconfigured spec to supply auxiliary lookup data, eg
// Register(OSCR(dual)).
func Register(spec *Spec) {
	registry[spec.Name] = spec
}

// Lookup returns the spec for a registered source name.
func Lookup(name string) (*Spec, error) {
	spec, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown source %q (have: %s)", name, strings.Join(Names(), ", "))
	}
	return spec, nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register(OSCR(nil))
	Register(CCNI(nil))
	Register(CASC())
	for _, spec := range ManualLinks() {
		Register(spec)
	}
}

// orgID builds a canonical org-id string, eg ("GB-SC", "123456") ->
// "GB-SC-123456".
func orgID(prefix, localID string) string {
	return prefix + "-" + strings.TrimSpace(localID)
}

// cleanRow trims whitespace from every value. Returns a copy, the
// caller's map is left alone.
func cleanRow(row map[string]string) map[string]string {
	out := make(map[string]string, len(row))
	for k, v := range row {
		out[k] = strings.TrimSpace(v)
	}
	return out
}

// parseIncome reads an integer income figure, nil for blank or
// malformed values.
func parseIncome(raw string) *int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// now is swapped out in tests.
var now = time.Now
