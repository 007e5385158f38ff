package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tingelst/sns-ik/pkg/snsik"
	"github.com/tingelst/sns-ik/pkg/solver"
)

// parseFloats parses a comma-separated float list like "0,0.1,-1.2".
func parseFloats(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q: %w", p, err)
		}
		out[i] = v
	}
	return out, nil
}

// parseTwist parses exactly six comma-separated values: linear x,y,z then
// angular x,y,z.
func parseTwist(s string) (solver.Twist, error) {
	var tw solver.Twist
	vals, err := parseFloats(s)
	if err != nil {
		return tw, err
	}
	if len(vals) != 6 {
		return tw, fmt.Errorf("twist needs 6 components, got %d", len(vals))
	}
	copy(tw[:], vals)
	return tw, nil
}

// parseBias parses a bias request like "j2=1.0,j5=-0.5" into a nullspace
// bias. An empty string means no bias.
func parseBias(s string) (*snsik.NullspaceBias, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var bias snsik.NullspaceBias
	for _, part := range strings.Split(s, ",") {
		name, val, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return nil, fmt.Errorf("bad bias entry %q, want name=value", part)
		}
		v, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, fmt.Errorf("bad bias value in %q: %w", part, err)
		}
		bias.Names = append(bias.Names, name)
		bias.Positions = append(bias.Positions, v)
	}
	return &bias, nil
}
