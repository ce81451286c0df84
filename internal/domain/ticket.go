package domain

import (
	"strings"
	"time"
)

// Category enumerates a ticket's classified domain.
type Category string

const (
	CategoryBilling   Category = "BILLING"
	CategoryTechnical Category = "TECHNICAL"
	CategorySecurity  Category = "SECURITY"
	CategoryGeneral   Category = "GENERAL"
)

// Categories lists every known category.
func Categories() []Category {
	return []Category{CategoryBilling, CategoryTechnical, CategorySecurity, CategoryGeneral}
}

// ParseCategory maps a free-form label to a known category. The second
// return value is false when the label is unrecognized.
func ParseCategory(label string) (Category, bool) {
	switch Category(strings.ToUpper(strings.TrimSpace(label))) {
	case CategoryBilling:
		return CategoryBilling, true
	case CategoryTechnical:
		return CategoryTechnical, true
	case CategorySecurity:
		return CategorySecurity, true
	case CategoryGeneral:
		return CategoryGeneral, true
	}
	return CategoryGeneral, false
}

// Ticket is one customer support request. Immutable after intake.
type Ticket struct {
	ID          string
	Subject     string
	Description string
	CreatedAt   time.Time
}

// Text returns the verbatim ticket text used to seed the first retrieval query.
func (t *Ticket) Text() string {
	subject := strings.TrimSpace(t.Subject)
	description := strings.TrimSpace(t.Description)
	if subject == "" {
		return description
	}
	if description == "" {
		return subject
	}
	return subject + " " + description
}
