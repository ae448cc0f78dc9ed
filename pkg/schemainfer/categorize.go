// Package schemainfer categorizes uploaded columns and infers join
// relationships between files from column names and types. Everything here is
// pure and deterministic; the agent pipeline consumes its output as grounding
// but makes its own decisions.
package schemainfer

import (
	"regexp"
	"sort"
	"strings"
)

// Category classifies a column by its analytical role.
type Category string

const (
	// CategoryID marks primary/foreign key columns (EmpID, Employee ID).
	CategoryID Category = "id"
	// CategoryMetric marks numeric values you aggregate (Salary, Score).
	CategoryMetric Category = "metric"
	// CategoryDimension marks categories you group by (Department, Status).
	CategoryDimension Category = "dimension"
	// CategoryDate marks temporal columns (StartDate, Survey Date).
	CategoryDate Category = "date"
	// CategoryIdentifier marks names/contact info, noise for analytics.
	CategoryIdentifier Category = "identifier"
	// CategoryOther is everything else.
	CategoryOther Category = "other"
)

// Keyword lists are data, not control flow, so they can be tested and
// extended independently.
var metricKeywords = []string{
	"salary", "cost", "price", "amount", "revenue", "fee",
	"score", "rating", "duration", "budget", "hours",
	"experience", "rate", "income", "profit", "balance",
	"total", "size", "weight", "height", "volume",
	"percentage", "ratio", "wage", "bonus", "commission",
}

var dimensionKeywords = []string{
	"department", "type", "category", "status", "outcome",
	"level", "group", "class", "tier", "zone", "region",
	"location", "city", "state", "country", "gender",
	"title", "role", "position", "program", "trainer",
	"supervisor", "education", "marital", "mode", "method",
	"source", "channel", "division", "unit", "team",
	"shift", "grade", "race", "ethnicity",
}

var identifierKeywords = []string{
	"name", "first", "last", "email", "phone", "address",
	"zip", "description", "comment", "note", "url", "link",
	"bio", "image", "photo", "avatar", "password", "token",
	"ssn", "social",
}

var (
	idWordPattern       = regexp.MustCompile(`(?i)\bid\b`)
	dateWordPattern     = regexp.MustCompile(`(?i)\b(month|year|quarter|week)\b`)
	categorySeparators  = regexp.MustCompile(`[\s_\-()]`)
	normalizeSeparators = regexp.MustCompile(`[\s_\-]`)
)

// CategorizeColumn classifies a single column by its name.
func CategorizeColumn(col string) Category {
	norm := strings.ToLower(categorySeparators.ReplaceAllString(col, ""))

	// ID columns first: they are the join keys everything hangs off.
	if strings.HasSuffix(norm, "id") || norm == "id" || idWordPattern.MatchString(col) {
		return CategoryID
	}

	// Identifier before metric, so "Phone Number" does not land in metrics.
	for _, kw := range identifierKeywords {
		if strings.Contains(norm, kw) {
			return CategoryIdentifier
		}
	}

	if strings.Contains(norm, "date") || strings.Contains(norm, "timestamp") || dateWordPattern.MatchString(col) {
		return CategoryDate
	}

	for _, kw := range metricKeywords {
		if strings.Contains(norm, kw) {
			return CategoryMetric
		}
	}

	for _, kw := range dimensionKeywords {
		if strings.Contains(norm, kw) {
			return CategoryDimension
		}
	}

	return CategoryOther
}

// CategorizedColumn pairs a column name with its category.
type CategorizedColumn struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
}

// CategorizeColumns classifies all columns of a file.
func CategorizeColumns(columns []string) []CategorizedColumn {
	result := make([]CategorizedColumn, len(columns))
	for i, name := range columns {
		result[i] = CategorizedColumn{Name: name, Category: CategorizeColumn(name)}
	}
	return result
}

// relevanceOrder ranks categories by analytical usefulness:
// id → metric → dimension → date → other → identifier.
var relevanceOrder = map[Category]int{
	CategoryID:         0,
	CategoryMetric:     1,
	CategoryDimension:  2,
	CategoryDate:       3,
	CategoryOther:      4,
	CategoryIdentifier: 5,
}

// SortColumnsByRelevance returns a copy sorted by analytical relevance.
// The sort is stable so column order within a category is preserved.
func SortColumnsByRelevance(columns []CategorizedColumn) []CategorizedColumn {
	sorted := make([]CategorizedColumn, len(columns))
	copy(sorted, columns)
	sort.SliceStable(sorted, func(i, j int) bool {
		return relevanceOrder[sorted[i].Category] < relevanceOrder[sorted[j].Category]
	})
	return sorted
}

// normalizeName lowercases a column name and strips separators for
// comparison across files.
func normalizeName(col string) string {
	return strings.ToLower(normalizeSeparators.ReplaceAllString(col, ""))
}
