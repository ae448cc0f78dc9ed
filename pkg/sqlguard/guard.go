// Package sqlguard validates and normalizes agent-generated SQL before it
// touches the row store. Agents cannot be trusted to produce constrained SQL;
// this is the single choke point standing between generated text and live
// data.
package sqlguard

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lubobali/mergeAI/pkg/apperrors"
)

// MaxRows is the row cap appended to statements without an explicit LIMIT.
const MaxRows = 200

// blockedKeywords are mutating/DDL verbs rejected as whole words, any casing.
// Kept as data so the list can be tested and extended independently.
var blockedKeywords = []string{
	"INSERT",
	"UPDATE",
	"DELETE",
	"DROP",
	"ALTER",
	"TRUNCATE",
	"CREATE",
	"GRANT",
	"REVOKE",
	"COPY",
	"EXECUTE",
}

var blockedPatterns = compileBlockedPatterns()

func compileBlockedPatterns() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(blockedKeywords))
	for _, kw := range blockedKeywords {
		patterns[kw] = regexp.MustCompile(`(?i)\b` + kw + `\b`)
	}
	return patterns
}

// limitPattern matches an explicit LIMIT clause as a whole word.
var limitPattern = regexp.MustCompile(`(?i)\bLIMIT\b`)

// Validate applies the safety rules in order, each producing a distinct
// rejection reason:
//  1. Statement must begin with SELECT or WITH (case-insensitive).
//  2. Statement must contain no statement separator (semicolon outside
//     string literals) — defends against chained-statement injection.
//  3. Statement must not contain any blocked keyword as a whole word.
func Validate(sqlText string) error {
	trimmed := strings.TrimSpace(sqlText)
	upper := strings.ToUpper(trimmed)

	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return apperrors.ErrNotReadQuery
	}

	if hasSemicolonOutsideStrings(trimmed) {
		return apperrors.ErrMultiStatement
	}

	// Keyword matching runs on a copy with string literal contents blanked,
	// so WHERE note = 'please delete' is not rejected for the word inside
	// the literal.
	scannable := blankStringLiterals(trimmed)
	for _, kw := range blockedKeywords {
		if blockedPatterns[kw].MatchString(scannable) {
			return fmt.Errorf("%w: %s", apperrors.ErrBlockedKeyword, kw)
		}
	}

	return nil
}

// blankStringLiterals replaces the contents of single- and double-quoted
// literals with spaces, preserving length and quote positions.
func blankStringLiterals(sqlText string) string {
	const (
		stateNormal = iota
		stateSingleQuote
		stateDoubleQuote
	)

	out := []rune(sqlText)
	state := stateNormal
	prevChar := rune(0)

	for i, char := range out {
		switch state {
		case stateNormal:
			switch char {
			case '\'':
				state = stateSingleQuote
			case '"':
				state = stateDoubleQuote
			}
		case stateSingleQuote:
			if char == '\'' && prevChar != '\\' {
				state = stateNormal
			} else {
				out[i] = ' '
			}
		case stateDoubleQuote:
			if char == '"' && prevChar != '\\' {
				state = stateNormal
			} else {
				out[i] = ' '
			}
		}
		prevChar = char
	}

	return string(out)
}

// EnforceLimit appends a LIMIT clause with the configured cap if the
// statement has none. Statements that already contain LIMIT are left
// unmodified — the agent's own limit is always at or below what it chose,
// and the result slice is bounded again at the response layer.
func EnforceLimit(sqlText string, maxRows int) string {
	if maxRows <= 0 {
		maxRows = MaxRows
	}
	if limitPattern.MatchString(sqlText) {
		return sqlText
	}
	return fmt.Sprintf("%s LIMIT %d", strings.TrimRight(sqlText, " \t\n\r"), maxRows)
}

// hasSemicolonOutsideStrings returns true if the SQL contains any semicolon
// outside of string literals. A quote-aware scan is required because agent
// SQL legitimately compares against literals that may contain semicolons.
func hasSemicolonOutsideStrings(sqlText string) bool {
	const (
		stateNormal = iota
		stateSingleQuote
		stateDoubleQuote
	)

	state := stateNormal
	prevChar := rune(0)

	for _, char := range sqlText {
		switch state {
		case stateNormal:
			switch char {
			case ';':
				return true
			case '\'':
				state = stateSingleQuote
			case '"':
				state = stateDoubleQuote
			}
		case stateSingleQuote:
			// Exit on unescaped quote. Handles backslash escape (\') and the
			// SQL standard doubled quote (''): the doubled form exits and
			// immediately re-enters on the next quote, which is correct.
			if char == '\'' && prevChar != '\\' {
				state = stateNormal
			}
		case stateDoubleQuote:
			if char == '"' && prevChar != '\\' {
				state = stateNormal
			}
		}
		prevChar = char
	}

	return false
}
