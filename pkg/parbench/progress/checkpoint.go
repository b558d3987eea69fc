package progress

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Spec is a configured checkpoint before it is resolved against an item count.
//
// At accepts three forms:
//   - "10"   fires when 10 items are complete
//   - "50%"  fires at ceil(N * 50 / 100) items
//   - "-10"  fires when N-10 items are complete (10 remaining)
type Spec struct {
	At    string `mapstructure:"at" json:"at" yaml:"at"`
	Label string `mapstructure:"label" json:"label" yaml:"label"`
}

// Checkpoint is a resolved measurement point.
type Checkpoint struct {
	Threshold int64  `json:"threshold" yaml:"threshold"`
	Label     string `json:"label" yaml:"label"`
}

// DefaultSpecs mirrors the classic "first 10 / roughly half / last 10" set.
func DefaultSpecs() []Spec {
	return []Spec{
		{At: "10", Label: "first 10"},
		{At: "50%", Label: "half"},
		{At: "-10", Label: "last 10"},
	}
}

// threshold converts s to an absolute item count for n items.
func (s Spec) threshold(n int64) (int64, error) {
	at := strings.TrimSpace(s.At)
	switch {
	case at == "":
		return 0, fmt.Errorf("checkpoint %q: empty position", s.Label)

	case strings.HasSuffix(at, "%"):
		pct, err := strconv.ParseFloat(strings.TrimSuffix(at, "%"), 64)
		if err != nil || pct < 0 || pct > 100 {
			return 0, fmt.Errorf("checkpoint %q: invalid percentage %q", s.Label, s.At)
		}
		return int64(math.Ceil(float64(n) * pct / 100)), nil

	case strings.HasPrefix(at, "-"):
		back, err := strconv.ParseInt(at[1:], 10, 64)
		if err != nil || back < 0 {
			return 0, fmt.Errorf("checkpoint %q: invalid offset %q", s.Label, s.At)
		}
		return n - back, nil

	default:
		v, err := strconv.ParseInt(at, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("checkpoint %q: invalid count %q", s.Label, s.At)
		}
		return v, nil
	}
}

// Validate checks that every spec parses, independent of the item count.
func Validate(specs []Spec) error {
	for _, s := range specs {
		if _, err := s.threshold(1 << 30); err != nil {
			return err
		}
	}
	return nil
}

// Resolve turns specs into checkpoints for n items.
//
// Thresholds outside [1, n] are skipped and returned in skipped. The result
// is sorted by threshold, and specs that land on the same threshold are
// merged into one checkpoint whose label joins theirs with " / " in
// configuration order. This keeps small runs, where "first 10" and "last 10"
// can coincide or fall outside the range, well defined.
func Resolve(specs []Spec, n int64) (resolved []Checkpoint, skipped []Spec, err error) {
	byThreshold := make(map[int64]int)
	for _, s := range specs {
		th, err := s.threshold(n)
		if err != nil {
			return nil, nil, err
		}
		if th < 1 || th > n {
			skipped = append(skipped, s)
			continue
		}
		label := s.Label
		if label == "" {
			label = s.At
		}
		if i, ok := byThreshold[th]; ok {
			resolved[i].Label += " / " + label
			continue
		}
		byThreshold[th] = len(resolved)
		resolved = append(resolved, Checkpoint{Threshold: th, Label: label})
	}

	slices.SortFunc(resolved, func(a, b Checkpoint) int {
		return cmp.Compare(a.Threshold, b.Threshold)
	})
	return resolved, skipped, nil
}
