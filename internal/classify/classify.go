// Package classify maps similarity scores and difference regions into the
// buckets shown to reviewers. Everything here is pure.
package classify

import (
	"fmt"
	"math"
	"sort"

	"diffreview/internal/domain"
)

// Bucket is one threshold of a profile. Scores >= Min fall into it.
type Bucket struct {
	Min         float64 `yaml:"min"`
	Class       string  `yaml:"class"`
	Description string  `yaml:"description"`
}

// Profile is a named display preset. Buckets are checked from the highest
// threshold down; Floor catches everything below the lowest one.
type Profile struct {
	Name    string   `yaml:"name"`
	Buckets []Bucket `yaml:"buckets"`
	Floor   Bucket   `yaml:"floor"`
}

type Result struct {
	Class       string
	Description string
}

var Standard = Profile{
	Name: "standard",
	Buckets: []Bucket{
		{Min: 90, Class: "excellent", Description: "Excellent! Nearly identical"},
		{Min: 70, Class: "good", Description: "Good! A few minor differences"},
		{Min: 50, Class: "fair", Description: "Fair! Noticeable differences"},
	},
	Floor: Bucket{Class: "poor", Description: "Poor! Many large differences"},
}

var Strict = Profile{
	Name: "strict",
	Buckets: []Bucket{
		{Min: 95, Class: "high", Description: "Very similar"},
		{Min: 80, Class: "medium", Description: "Fairly similar"},
	},
	Floor: Bucket{Class: "low", Description: "Very different"},
}

// Classify buckets score. Lower bounds are closed: with Standard, 90 is
// excellent and 89.999 is good.
func (p Profile) Classify(score float64) (Result, error) {
	if math.IsNaN(score) || score < 0 || score > 100 {
		return Result{}, &domain.ValidationError{Field: "similarity_score", Reason: fmt.Sprintf("score %v outside [0,100]", score)}
	}
	for _, b := range p.Buckets {
		if score >= b.Min {
			return Result{Class: b.Class, Description: b.Description}, nil
		}
	}
	return Result{Class: p.Floor.Class, Description: p.Floor.Description}, nil
}

// Validate checks thresholds and orders buckets highest first.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile: name is required")
	}
	if len(p.Buckets) == 0 {
		return fmt.Errorf("profile %s: at least one bucket is required", p.Name)
	}
	if p.Floor.Class == "" {
		return fmt.Errorf("profile %s: floor class is required", p.Name)
	}
	for _, b := range p.Buckets {
		if b.Min < 0 || b.Min > 100 || b.Class == "" {
			return fmt.Errorf("profile %s: invalid bucket %+v", p.Name, b)
		}
	}
	sort.SliceStable(p.Buckets, func(i, j int) bool { return p.Buckets[i].Min > p.Buckets[j].Min })
	return nil
}

// Counts tallies difference regions by level.
type Counts struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// LevelCounts folds details into per-level counts. Unknown levels are dropped.
func LevelCounts(details []domain.DifferenceDetail) Counts {
	var c Counts
	for _, d := range details {
		switch d.Level {
		case domain.LevelHigh:
			c.High++
		case domain.LevelMedium:
			c.Medium++
		case domain.LevelLow:
			c.Low++
		}
	}
	return c
}
