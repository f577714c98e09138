package executor

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"
)

// nullText is how every executor renders SQL NULL and missing fields, so a
// result cell is never ambiguous with an empty string.
const nullText = "NULL"

// collectRows drains a database/sql result set into the uniform string
// table format.
func collectRows(rows *sql.Rows) (Result, error) {
	headers, err := rows.Columns()
	if err != nil {
		return Result{}, err
	}

	var data [][]string
	values := make([]any, len(headers))
	ptrs := make([]any, len(headers))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return Result{}, err
		}
		row := make([]string, len(headers))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return Result{}, err
	}
	return Result{Headers: headers, Rows: data}, nil
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return nullText
	case []byte:
		return string(val)
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		if val {
			return "1"
		}
		return "0"
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", val)
	}
}
