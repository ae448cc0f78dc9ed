package schemainfer

import "strings"

// JoinType ranks how confident the detector is about a join edge.
type JoinType string

const (
	// JoinExactID means both ID columns normalize to the same name.
	JoinExactID JoinType = "exact_id"
	// JoinFuzzyID means the ID column roots share a prefix (EmpID / Employee ID).
	JoinFuzzyID JoinType = "fuzzy_id"
	// JoinPossibleID is a last-resort edge for otherwise isolated files.
	JoinPossibleID JoinType = "possible_id"
)

// Confidence maps a join type to a numeric confidence score.
func (t JoinType) Confidence() float64 {
	switch t {
	case JoinExactID:
		return 0.95
	case JoinFuzzyID:
		return 0.75
	default:
		return 0.4
	}
}

// FileColumns is the minimal file shape join detection needs.
type FileColumns struct {
	ID       string
	FileName string
	Columns  []string
}

// JoinEndpoint identifies one side of a detected join.
type JoinEndpoint struct {
	FileID   string `json:"fileId"`
	FileName string `json:"fileName"`
	Column   string `json:"column"`
}

// DetectedJoin is one edge in the file relationship graph.
type DetectedJoin struct {
	FileA      JoinEndpoint `json:"fileA"`
	FileB      JoinEndpoint `json:"fileB"`
	JoinType   JoinType     `json:"joinType"`
	Confidence float64      `json:"confidence"`
	Label      string       `json:"label"`
}

type columnPair struct {
	colA, colB string
}

// DetectJoins compares ID columns across every file pair and returns the
// detected join edges. Exact matches win over fuzzy ones; isolated files
// with an ID column get one "possible" edge so no file is orphaned.
func DetectJoins(files []FileColumns) []DetectedJoin {
	var joins []DetectedJoin

	for i := 0; i < len(files); i++ {
		for j := i + 1; j < len(files); j++ {
			fileA, fileB := files[i], files[j]

			var exactMatch, fuzzyMatch *columnPair

			for _, colA := range fileA.Columns {
				if CategorizeColumn(colA) != CategoryID {
					continue
				}
				for _, colB := range fileB.Columns {
					if CategorizeColumn(colB) != CategoryID {
						continue
					}

					normA := normalizeName(colA)
					normB := normalizeName(colB)

					if normA == normB {
						exactMatch = &columnPair{colA, colB}
						break
					}

					// Roots sharing a prefix: "employeeid" vs "empid"
					// strip the id suffix and compare containment.
					if fuzzyMatch == nil {
						rootA := strings.TrimSuffix(normA, "id")
						rootB := strings.TrimSuffix(normB, "id")
						if len(rootA) > 1 && len(rootB) > 1 &&
							(strings.Contains(rootA, rootB) || strings.Contains(rootB, rootA)) {
							fuzzyMatch = &columnPair{colA, colB}
						}
					}
				}
				if exactMatch != nil {
					break
				}
			}

			best := exactMatch
			joinType := JoinExactID
			if best == nil {
				best = fuzzyMatch
				joinType = JoinFuzzyID
			}
			if best == nil {
				continue
			}

			// The longer column name usually reads better as a label.
			label := best.colA
			if len(best.colB) > len(best.colA) {
				label = best.colB
			}
			joins = append(joins, DetectedJoin{
				FileA:      JoinEndpoint{FileID: fileA.ID, FileName: fileA.FileName, Column: best.colA},
				FileB:      JoinEndpoint{FileID: fileB.ID, FileName: fileB.FileName, Column: best.colB},
				JoinType:   joinType,
				Confidence: joinType.Confidence(),
				Label:      "via " + label,
			})
		}
	}

	joins = append(joins, connectIsolated(files, joins)...)
	return joins
}

// connectIsolated gives each unconnected file with an ID column one
// low-confidence edge toward the rest of the graph.
func connectIsolated(files []FileColumns, joins []DetectedJoin) []DetectedJoin {
	connected := make(map[string]bool)
	for _, j := range joins {
		connected[j.FileA.FileID] = true
		connected[j.FileB.FileID] = true
	}

	var extra []DetectedJoin
	for _, file := range files {
		if connected[file.ID] {
			continue
		}
		ownIDs := idColumns(file.Columns)
		if len(ownIDs) == 0 {
			continue
		}

		target := findTarget(files, file.ID, connected)
		if target == nil {
			continue
		}
		targetIDs := idColumns(target.Columns)

		extra = append(extra, DetectedJoin{
			FileA:      JoinEndpoint{FileID: file.ID, FileName: file.FileName, Column: ownIDs[0]},
			FileB:      JoinEndpoint{FileID: target.ID, FileName: target.FileName, Column: targetIDs[0]},
			JoinType:   JoinPossibleID,
			Confidence: JoinPossibleID.Confidence(),
			Label:      ownIDs[0] + " ↔ " + targetIDs[0],
		})
		connected[file.ID] = true
		connected[target.ID] = true
	}
	return extra
}

// findTarget prefers an already-connected file with ID columns, falling
// back to any other file that has one.
func findTarget(files []FileColumns, excludeID string, connected map[string]bool) *FileColumns {
	var fallback *FileColumns
	for i := range files {
		f := &files[i]
		if f.ID == excludeID || len(idColumns(f.Columns)) == 0 {
			continue
		}
		if connected[f.ID] {
			return f
		}
		if fallback == nil {
			fallback = f
		}
	}
	return fallback
}

func idColumns(columns []string) []string {
	var ids []string
	for _, c := range columns {
		if CategorizeColumn(c) == CategoryID {
			ids = append(ids, c)
		}
	}
	return ids
}
