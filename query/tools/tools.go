// Package tools provides editor-grade SQL helpers: a heuristic linter, a
// keyword line-breaking formatter and completion snippet catalogs. These
// work on raw text and never parse; they are safe on statements the query
// pipeline rejects.
package tools

import (
	"strings"
)

// LintSeverity orders lint findings.
type LintSeverity int

const (
	SeverityInfo LintSeverity = iota
	SeverityWarning
	SeverityError
)

func (s LintSeverity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	}
	return "unknown"
}

// Span is a half-open byte range into the linted text.
type Span struct {
	Start int
	End   int
}

// LintMessage is a single lint finding.
type LintMessage struct {
	Severity LintSeverity
	Message  string
	// Span points at the offending text when it can be located; nil means
	// the finding applies to the whole statement.
	Span *Span
	Hint string
}

func findFold(haystack, needle string) int {
	return strings.Index(strings.ToLower(haystack), strings.ToLower(needle))
}

// LintSQL runs the heuristic checks over a statement. Findings are advisory;
// an empty slice means nothing looked risky.
func LintSQL(sql string) []LintMessage {
	var messages []LintMessage
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return messages
	}

	if idx := findFold(trimmed, "SELECT *"); idx >= 0 {
		messages = append(messages, LintMessage{
			Severity: SeverityWarning,
			Message:  "Avoid SELECT * to minimize payload and leverage indexes.",
			Span:     &Span{Start: idx, End: idx + len("SELECT *")},
			Hint:     "Enumerate the columns you actually need.",
		})
	}

	upper := strings.ToUpper(trimmed)
	if strings.HasPrefix(upper, "DELETE") && !strings.Contains(upper, "WHERE") {
		messages = append(messages, LintMessage{
			Severity: SeverityWarning,
			Message:  "DELETE without a WHERE clause will remove every row.",
			Hint:     "Add a WHERE clause or run inside a transaction.",
		})
	}
	if strings.HasPrefix(upper, "UPDATE") && !strings.Contains(upper, "WHERE") {
		messages = append(messages, LintMessage{
			Severity: SeverityWarning,
			Message:  "UPDATE without a WHERE clause will touch every row.",
			Hint:     "Add a WHERE clause to scope the update.",
		})
	}
	if strings.Contains(upper, "DROP TABLE") && !strings.Contains(upper, "IF EXISTS") {
		if idx := findFold(trimmed, "DROP TABLE"); idx >= 0 {
			messages = append(messages, LintMessage{
				Severity: SeverityInfo,
				Message:  "DROP TABLE without IF EXISTS may fail if the table is missing.",
				Span:     &Span{Start: idx, End: idx + len("DROP TABLE")},
				Hint:     "Consider DROP TABLE IF EXISTS ...",
			})
		}
	}

	return messages
}

// clause keywords that start a new line in FormatSQL.
var breakKeywords = map[string]bool{
	"SELECT": true,
	"FROM":   true,
	"WHERE":  true,
	"GROUP":  true,
	"ORDER":  true,
	"HAVING": true,
	"LIMIT":  true,
	"JOIN":   true,
}

var joinPrefixes = map[string]bool{
	"LEFT":  true,
	"RIGHT": true,
	"INNER": true,
	"OUTER": true,
	"FULL":  true,
	"CROSS": true,
}

// FormatSQL breaks a statement into one clause per line. It returns ok=false
// when the input is empty or already formatted.
func FormatSQL(sql string) (string, bool) {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return "", false
	}

	tokens := strings.Fields(trimmed)
	var lines []string
	var current strings.Builder

	for i := 0; i < len(tokens); i++ {
		token := tokens[i]
		upper := strings.ToUpper(token)

		// "LEFT JOIN" and friends break as one unit.
		if joinPrefixes[upper] && i+1 < len(tokens) && strings.EqualFold(tokens[i+1], "JOIN") {
			token = token + " " + tokens[i+1]
			upper = "JOIN"
			i++
		}

		if breakKeywords[upper] && current.Len() > 0 {
			lines = append(lines, strings.TrimRight(current.String(), " "))
			current.Reset()
		}

		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(token)
	}

	if strings.TrimSpace(current.String()) != "" {
		lines = append(lines, strings.TrimRight(current.String(), " "))
	}

	formatted := strings.TrimSpace(strings.Join(lines, "\n"))
	if formatted == trimmed {
		return "", false
	}
	return formatted, true
}
