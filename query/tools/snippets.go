package tools

import "strings"

// SnippetContext narrows snippet suggestions to the clause under the cursor.
type SnippetContext int

const (
	ContextAny SnippetContext = iota
	ContextSelectList
	ContextFromClause
	ContextWhereClause
)

func (c SnippetContext) matches(other SnippetContext) bool {
	return c == ContextAny || c == other || other == ContextAny
}

// Snippet is a completion template offered by the editor.
type Snippet struct {
	Label    string
	Template string
	Note     string
	Context  SnippetContext
}

var snippets = []Snippet{
	{
		Label:    "SELECT skeleton",
		Template: "SELECT column1\nFROM table_name\nWHERE condition;",
		Note:     "Basic SELECT template",
		Context:  ContextAny,
	},
	{
		Label:    "SELECT COUNT(*)",
		Template: "SELECT COUNT(*) AS total\nFROM table_name;",
		Note:     "Count rows in a table",
		Context:  ContextSelectList,
	},
	{
		Label:    "JOIN template",
		Template: "LEFT JOIN other_table ON condition",
		Note:     "Skeleton for a JOIN clause",
		Context:  ContextFromClause,
	},
	{
		Label:    "INSERT row",
		Template: "INSERT INTO table_name (column1, column2)\nVALUES (value1, value2);",
		Note:     "Insert a single row",
		Context:  ContextAny,
	},
	{
		Label:    "UPDATE with WHERE",
		Template: "UPDATE table_name\nSET column1 = value1\nWHERE condition;",
		Note:     "Update rows guarded by a WHERE clause",
		Context:  ContextWhereClause,
	},
}

// SnippetCandidates returns the snippets matching a typed prefix and clause
// context. An empty prefix matches everything in context.
func SnippetCandidates(prefix string, ctx SnippetContext) []Snippet {
	lowered := strings.ToLower(strings.TrimSpace(prefix))
	var out []Snippet
	for _, s := range snippets {
		if !s.Context.matches(ctx) {
			continue
		}
		if lowered != "" &&
			!strings.HasPrefix(strings.ToLower(s.Label), lowered) &&
			!strings.HasPrefix(strings.ToLower(s.Template), lowered) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// ParameterSuggestion is a bind-parameter completion.
type ParameterSuggestion struct {
	Label    string
	Template string
	Note     string
}

var parameters = []ParameterSuggestion{
	{Label: ":id", Template: ":id", Note: "Named identifier parameter"},
	{Label: ":start_date", Template: ":start_date", Note: "Start date parameter"},
	{Label: ":end_date", Template: ":end_date", Note: "End date parameter"},
	{Label: "@user_id", Template: "@user_id", Note: "SQL Server style parameter"},
	{Label: "$1", Template: "$1", Note: "Positional parameter"},
	{Label: "$2", Template: "$2", Note: "Positional parameter"},
}

// ParameterCandidates returns bind-parameter completions for a prefix that
// starts with one of the parameter sigils.
func ParameterCandidates(prefix string) []ParameterSuggestion {
	if prefix == "" {
		return nil
	}
	switch prefix[0] {
	case ':', '@', '$':
	default:
		return nil
	}
	lowered := strings.ToLower(prefix)
	var out []ParameterSuggestion
	for _, p := range parameters {
		if strings.HasPrefix(strings.ToLower(p.Label), lowered) {
			out = append(out, p)
		}
	}
	return out
}
