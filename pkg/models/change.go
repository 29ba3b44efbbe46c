package models

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Action is a pending change for one package.
type Action int

const (
	Install Action = iota
	Uninstall
)

func (a Action) String() string {
	switch a {
	case Install:
		return "install"
	case Uninstall:
		return "uninstall"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Action) UnmarshalText(text []byte) error {
	switch string(text) {
	case "install":
		*a = Install
	case "uninstall":
		*a = Uninstall
	default:
		return fmt.Errorf("unknown action %q", text)
	}
	return nil
}

// ChangeEntry is one pending decision in a changeset.
type ChangeEntry struct {
	Identifier PackageIdentifier `json:"identifier"`
	Package    Package           `json:"package"`
	Action     Action            `json:"action"`
}

// PackageDetail is the opaque key/value description pushed by the host for
// the detail view.
type PackageDetail map[string]any

// DetailRow is one rendered property of a PackageDetail.
type DetailRow struct {
	Property string
	Value    string
}

// Rows returns the detail as property/value pairs sorted by property.
// Null values render as the empty string.
func (d PackageDetail) Rows() []DetailRow {
	rows := make([]DetailRow, 0, len(d))
	for k, v := range d {
		rows = append(rows, DetailRow{Property: k, Value: detailValue(v)})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Property < rows[j].Property })
	return rows
}

func detailValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64, bool, int:
		return fmt.Sprint(val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}
