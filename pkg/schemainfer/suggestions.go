package schemainfer

import (
	"fmt"
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/lubobali/mergeAI/pkg/models"
)

// SuggestionType distinguishes single-file from cross-file suggestions.
type SuggestionType string

const (
	SuggestionSingle SuggestionType = "single"
	SuggestionCross  SuggestionType = "cross"
)

// SuggestedQuery is one clickable query suggestion.
type SuggestedQuery struct {
	Text string         `json:"text"`
	Type SuggestionType `json:"type"`
}

const maxSuggestions = 5

// SuggestionInput carries the column info the engine needs per file.
type SuggestionInput struct {
	ID          string
	FileName    string
	Columns     []string
	ColumnTypes map[string]models.ColumnType
}

// fileAnalysis buckets a file's columns by category, with the
// metric bucket cross-checked against real data types.
type fileAnalysis struct {
	id         string
	metrics    []string
	dimensions []string
	dates      []string
	ids        []string
}

// analyzeFile categorizes columns, demoting name-based metrics whose
// actual data turned out to be text. A column named "Score" is only a
// metric if the uploaded values are numeric.
func analyzeFile(file SuggestionInput) fileAnalysis {
	a := fileAnalysis{id: file.ID}
	for _, col := range file.Columns {
		switch CategorizeColumn(col) {
		case CategoryID:
			a.ids = append(a.ids, col)
		case CategoryDate:
			a.dates = append(a.dates, col)
		case CategoryDimension:
			a.dimensions = append(a.dimensions, col)
		case CategoryMetric:
			if file.ColumnTypes[col] == models.ColumnTypeNumber {
				a.metrics = append(a.metrics, col)
			} else {
				a.dimensions = append(a.dimensions, col)
			}
		}
	}
	return a
}

// GenerateSuggestions produces 3-5 query suggestions from the selected
// files and their detected joins. Cross-file suggestions come first,
// then single-file ones fill the remaining slots.
func GenerateSuggestions(files []SuggestionInput, joins []DetectedJoin) []SuggestedQuery {
	if len(files) == 0 {
		return nil
	}

	var suggestions []SuggestedQuery
	used := make(map[string]bool)

	analyses := make([]fileAnalysis, len(files))
	byID := make(map[string]*fileAnalysis, len(files))
	for i, f := range files {
		analyses[i] = analyzeFile(f)
		byID[f.ID] = &analyses[i]
	}

	if len(joins) > 0 && len(analyses) >= 2 {
		for _, join := range joins {
			if len(suggestions) >= 3 {
				break
			}
			aFile := byID[join.FileA.FileID]
			bFile := byID[join.FileB.FileID]
			if aFile == nil || bFile == nil {
				continue
			}

			if metric, dim, ok := pickPair(aFile.metrics, bFile.dimensions, used); ok {
				suggestions = append(suggestions, SuggestedQuery{
					Text: fmt.Sprintf("Compare average %s by %s", metric, dim),
					Type: SuggestionCross,
				})
			}
			if metric, dim, ok := pickPair(bFile.metrics, aFile.dimensions, used); ok {
				suggestions = append(suggestions, SuggestedQuery{
					Text: fmt.Sprintf("Show average %s by %s", metric, dim),
					Type: SuggestionCross,
				})
			}
			if len(aFile.metrics) > 0 && len(bFile.dates) > 0 {
				if metric, ok := pickUnused(aFile.metrics, used); ok {
					dim, dimOK := pickUnused(bFile.dimensions, used)
					if !dimOK {
						dim, dimOK = pickUnused(aFile.dimensions, used)
					}
					if dimOK {
						suggestions = append(suggestions, SuggestedQuery{
							Text: fmt.Sprintf("Show %s trend over time by %s", metric, dim),
							Type: SuggestionCross,
						})
						used[metric] = true
						used[dim] = true
					}
				}
			}
		}
	}

	for _, a := range analyses {
		if len(suggestions) >= maxSuggestions {
			break
		}

		if metric, dim, ok := pickPair(a.metrics, a.dimensions, used); ok {
			suggestions = append(suggestions, SuggestedQuery{
				Text: fmt.Sprintf("What is the average %s by %s?", metric, dim),
				Type: SuggestionSingle,
			})
		}
		if len(a.metrics) > 0 && len(a.dates) > 0 {
			if metric, ok := pickUnused(a.metrics, used); ok {
				suggestions = append(suggestions, SuggestedQuery{
					Text: fmt.Sprintf("Show %s trend over time", metric),
					Type: SuggestionSingle,
				})
				used[metric] = true
			}
		}
		if len(suggestions) < maxSuggestions {
			if dim, ok := pickUnused(a.dimensions, used); ok {
				suggestions = append(suggestions, SuggestedQuery{
					Text: fmt.Sprintf("What is the %s distribution?", inflection.Singular(dim)),
					Type: SuggestionSingle,
				})
				used[dim] = true
			}
		}
		if len(a.metrics) >= 2 && len(suggestions) < maxSuggestions {
			if m1, ok := pickUnused(a.metrics, used); ok {
				used[m1] = true
				if m2, ok := pickUnused(a.metrics, used); ok {
					suggestions = append(suggestions, SuggestedQuery{
						Text: fmt.Sprintf("Show %s vs %s", m1, m2),
						Type: SuggestionSingle,
					})
					used[m2] = true
				}
			}
		}
	}

	return dedupeSuggestions(suggestions)
}

// pickPair takes one unused metric and one unused dimension together, or
// neither. Marks both used on success.
func pickPair(metrics, dimensions []string, used map[string]bool) (string, string, bool) {
	metric, ok := pickUnused(metrics, used)
	if !ok {
		return "", "", false
	}
	dim, ok := pickUnused(dimensions, used)
	if !ok {
		return "", "", false
	}
	used[metric] = true
	used[dim] = true
	return metric, dim, true
}

func pickUnused(candidates []string, used map[string]bool) (string, bool) {
	for _, c := range candidates {
		if !used[c] {
			return c, true
		}
	}
	return "", false
}

func dedupeSuggestions(suggestions []SuggestedQuery) []SuggestedQuery {
	seen := make(map[string]bool, len(suggestions))
	var out []SuggestedQuery
	for _, s := range suggestions {
		key := strings.ToLower(s.Text)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}
