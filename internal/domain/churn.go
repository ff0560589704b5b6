// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"fmt"
	"time"
)

// Churn holds the added and deleted line counts of a commit history.
// It is the core domain entity of this application.
type Churn struct {
	Added   int `json:"lines_added"`
	Deleted int `json:"lines_deleted"`
}

// Total returns the combined count of added and deleted lines.
func (c Churn) Total() int {
	return c.Added + c.Deleted
}

// Add returns the sum of c and other.
func (c Churn) Add(other Churn) Churn {
	return Churn{
		Added:   c.Added + other.Added,
		Deleted: c.Deleted + other.Deleted,
	}
}

// String renders the one-line report printed by the CLI.
func (c Churn) String() string {
	return fmt.Sprintf("Lines Added: %d, Lines Deleted: %d, Total Churn: %d", c.Added, c.Deleted, c.Total())
}

// MarshalJSON includes the derived total next to both counters.
func (c Churn) MarshalJSON() ([]byte, error) {
	return fmt.Appendf(nil, `{"lines_added":%d,"lines_deleted":%d,"total_churn":%d}`, c.Added, c.Deleted, c.Total()), nil
}

// RepoChurn is the churn of a single remote repository.
type RepoChurn struct {
	Name  string `json:"name"`
	Churn Churn  `json:"churn"`
}

// WeeklyChurn is one week of GitHub code frequency statistics.
// Deleted is stored as a positive number.
type WeeklyChurn struct {
	Week    time.Time `json:"week"`
	Added   int       `json:"lines_added"`
	Deleted int       `json:"lines_deleted"`
}

// Total returns the churn of the week.
func (w WeeklyChurn) Total() int {
	return w.Added + w.Deleted
}

// WeeklySummary describes the distribution of weekly churn for a repository.
type WeeklySummary struct {
	Name   string        `json:"name"`
	Weeks  []WeeklyChurn `json:"weeks"`
	Total  Churn         `json:"total"`
	Mean   float64       `json:"mean"`
	Median float64       `json:"median"`
	P90    float64       `json:"p90"`
	Max    float64       `json:"max"`
}
