package analysis

import (
	"sort"
	"time"

	"github.com/stanley00316/election-system-demo-sub004/internal/types"
)

// Preprocessor cleans contact history before it is counted
type Preprocessor struct {
	minSpacing time.Duration
}

// NewPreprocessor creates a new preprocessor
func NewPreprocessor(minSpacing time.Duration) *Preprocessor {
	return &Preprocessor{minSpacing: minSpacing}
}

// ProcessContacts returns contacts sorted by time with double submissions
// removed. The input slice is not modified.
func (p *Preprocessor) ProcessContacts(contacts []types.Contact) ([]types.Contact, int) {
	sorted := make([]types.Contact, len(contacts))
	copy(sorted, contacts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].ContactedAt.Equal(sorted[j].ContactedAt) {
			return sorted[i].ContactedAt.Before(sorted[j].ContactedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})

	return p.removeDuplicates(sorted)
}

type contactKey struct {
	voterID string
	kind    types.ContactType
	outcome types.ContactOutcome
}

// removeDuplicates collapses repeats of the same voter, type and outcome logged
// within minSpacing of the last kept entry
func (p *Preprocessor) removeDuplicates(contacts []types.Contact) ([]types.Contact, int) {
	if len(contacts) == 0 || p.minSpacing <= 0 {
		return contacts, 0
	}

	lastKept := make(map[contactKey]time.Time)
	cleaned := make([]types.Contact, 0, len(contacts))
	collapsed := 0

	for _, c := range contacts {
		key := contactKey{c.VoterID, c.Type, c.Outcome}
		if last, ok := lastKept[key]; ok && c.ContactedAt.Sub(last) < p.minSpacing {
			collapsed++
			continue
		}
		lastKept[key] = c.ContactedAt
		cleaned = append(cleaned, c)
	}

	return cleaned, collapsed
}
