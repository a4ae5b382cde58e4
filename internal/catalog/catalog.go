// Package catalog provides the static domain/question catalog that defines
// the questionnaire's flow topology.
//
// The catalog is loaded once at startup and is the single source of truth for
// the orchestrator; nothing mutates it afterwards.
package catalog

import (
	"fmt"
	"log/slog"

	"github.com/bloomcare/checkin/internal/models"
)

// Catalog is an ordered, validated set of questionnaire domains.
type Catalog struct {
	domains []models.Domain
	byID    map[string]int
}

// New builds a catalog from the given domains, validating the routing
// invariant: every follow-up question target must resolve within its own
// domain, and every domain-transition target must name an existing domain.
func New(domains []models.Domain) (*Catalog, error) {
	c := &Catalog{
		domains: domains,
		byID:    make(map[string]int, len(domains)),
	}
	for i := range domains {
		d := &domains[i]
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("domain %q invalid: %w", d.ID, err)
		}
		if _, dup := c.byID[d.ID]; dup {
			return nil, fmt.Errorf("duplicate domain id %q", d.ID)
		}
		c.byID[d.ID] = i
	}
	for i := range domains {
		d := &domains[i]
		for qi := range d.Questions {
			q := &d.Questions[qi]
			for option, target := range q.FollowUp {
				if target.IsDomainTransition() {
					if _, ok := c.byID[target.DomainID]; !ok {
						return nil, fmt.Errorf("question %s/%s option %q: %w: %q",
							d.ID, q.ID, option, models.ErrUnknownTargetDomain, target.DomainID)
					}
					continue
				}
				if FindQuestionIndex(d, target.QuestionID) < 0 {
					return nil, fmt.Errorf("question %s/%s option %q: %w: %q",
						d.ID, q.ID, option, models.ErrUnknownFollowUpTarget, target.QuestionID)
				}
			}
		}
	}
	slog.Debug("catalog.New: catalog validated", "domains", len(domains))
	return c, nil
}

// MustNew is like New but panics on validation failure. Intended for the
// compiled-in default catalog, where a failure is a programming error.
func MustNew(domains []models.Domain) *Catalog {
	c, err := New(domains)
	if err != nil {
		panic(fmt.Sprintf("catalog.MustNew: %v", err))
	}
	return c
}

// Default returns the built-in maternal-care check-in catalog.
func Default() *Catalog {
	return MustNew(defaultDomains())
}

// NumDomains returns the number of domains in order.
func (c *Catalog) NumDomains() int {
	return len(c.domains)
}

// GetDomain returns the domain at the given index, or nil if out of range.
func (c *Catalog) GetDomain(index int) *models.Domain {
	if index < 0 || index >= len(c.domains) {
		return nil
	}
	return &c.domains[index]
}

// DomainIndex returns the position of the domain with the given id, or -1.
func (c *Catalog) DomainIndex(id string) int {
	if i, ok := c.byID[id]; ok {
		return i
	}
	return -1
}

// FindQuestionIndex returns the index of the question with the given id
// inside the domain, or -1 if it does not exist.
func FindQuestionIndex(d *models.Domain, questionID string) int {
	if d == nil {
		return -1
	}
	for i := range d.Questions {
		if d.Questions[i].ID == questionID {
			return i
		}
	}
	return -1
}
