package repository

import (
	"database/sql/driver"
	"fmt"

	"github.com/goccy/go-json"
)

// stringList stores an ordered list of strings as a JSON array in a TEXT
// column so the same schema works on SQLite and Postgres.
type stringList []string

func (l stringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (l *stringList) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*l = stringList{}
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into string list", src)
	}

	out := []string{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &out); err != nil {
			return fmt.Errorf("invalid string list: %w", err)
		}
	}
	if out == nil {
		out = []string{}
	}
	*l = out
	return nil
}
