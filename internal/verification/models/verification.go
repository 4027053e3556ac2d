// Package models holds verification records and the matching rule inputs.
package models

import (
	"time"

	id "nagrik/pkg/domain"
)

// MaxStoredTags caps how many normalized oracle labels are kept per record.
const MaxStoredTags = 5

// Verification is the one-to-one verification record for an issue. Verified
// is monotonic: once true it never flips back, and the point bonus is tied to
// the first false-to-true transition, guarded by the points event key rather
// than this flag alone.
type Verification struct {
	IssueID         id.IssueID  `json:"issue_id"`
	Verified        bool        `json:"verified"`
	ConfidenceScore int         `json:"confidence_score"`
	Tags            []string    `json:"tags"`
	DuplicateOf     *id.IssueID `json:"duplicate_of,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// Result is what callers of RequestVerification receive.
type Result struct {
	Verified        bool     `json:"verified"`
	ConfidenceScore int      `json:"confidence_score"`
	Tags            []string `json:"tags"`

	// Credited is set when this request awarded the verification bonus.
	Credited bool `json:"credited,omitempty"`
}

// ValidTags is the controlled vocabulary an oracle label must belong to
// before it can verify an issue.
var ValidTags = []string{
	"garbage", "trash", "waste", "litter", "dumping", "overflowing bin",
	"pothole", "road damage", "broken sidewalk", "blocked road",
	"traffic light not working", "damaged signboard",
	"sewage", "open drain", "waterlogging", "leakage", "broken pipeline",
	"streetlight not working", "electrical hazard", "exposed wires", "power outage",
	"illegal construction", "deforestation", "pollution", "burning waste",
	"vandalism", "graffiti", "illegal parking", "encroachment", "broken fence",
	"park maintenance", "broken bench", "damaged playground", "public toilet issue",
}

var validTagSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(ValidTags))
	for _, tag := range ValidTags {
		set[tag] = struct{}{}
	}
	return set
}()

// IsValidTag reports whether a normalized label is in the vocabulary.
func IsValidTag(label string) bool {
	_, ok := validTagSet[label]
	return ok
}

// corroboratingTerms are generic waste-related catch-alls: a vocabulary match
// counts even when the description names the problem loosely.
var corroboratingTerms = []string{"waste", "garbage"}

// CorroboratingTerms returns the generic description terms accepted alongside
// an exact label match.
func CorroboratingTerms() []string {
	return corroboratingTerms
}
