package main

import (
	"fmt"
	"strings"

	"github.com/jamesainslie/parbench/pkg/parbench/progress"
)

// parseCheckpointFlags turns --checkpoint values of the form AT[:LABEL]
// into specs. AT takes the same forms as the config file.
func parseCheckpointFlags(values []string) ([]progress.Spec, error) {
	specs := make([]progress.Spec, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		at, label, _ := strings.Cut(v, ":")
		spec := progress.Spec{At: strings.TrimSpace(at), Label: strings.TrimSpace(label)}
		if spec.Label == "" {
			spec.Label = spec.At
		}
		if spec.At == "" {
			return nil, fmt.Errorf("checkpoint %q has no threshold", v)
		}
		specs = append(specs, spec)
	}

	if err := progress.Validate(specs); err != nil {
		return nil, err
	}
	return specs, nil
}
