package ports

import "github.com/labelscan/allergen-scanner/internal/domain"

type MatcherPort interface {
	// Match reports which allergen tokens occur in text and returns the
	// text with matched spans marked. It never fails; empty inputs yield
	// an empty matched set.
	Match(text string, allergens []string) domain.MatchResult
}
