package utils

import (
	"fmt"
	"math"
	rndm "math/rand"
	"strings"
)

// RandomInRange returns a pseudo-random integer in [lo, hi].
func RandomInRange(lo, hi int) int {
	return lo + rndm.Intn(hi-lo+1)
}

// NewChefID returns an id of the form chef-NNNN with NNNN in [1000, 9999].
func NewChefID() string {
	return fmt.Sprintf("chef-%d", RandomInRange(1000, 9999))
}

// RoundTo1 rounds to one decimal place.
func RoundTo1(v float64) float64 {
	return math.Round(v*10) / 10
}

// SplitList splits a comma-separated list and drops empty items.
func SplitList(input string) []string {
	var out []string
	for _, p := range strings.Split(input, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
