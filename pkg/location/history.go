package location

import (
	"encoding/json"
	"fmt"
	"sort"

	"watersync/entities"
	"watersync/pkg/forms"
)

// DetailPrefix marks history rows that track a key of the type-specific
// payload, e.g. "detail.casing_top".
const DetailPrefix = "detail."

// Changes lists the differences between prev and next as unsaved history
// rows: one per tracked column and one per payload key whose value changed.
// ChangeID, reason and dates are left to the caller.
func Changes(prev, next *entities.Location) ([]entities.LocationHistory, error) {
	var out []entities.LocationHistory
	add := func(field, was, now string) {
		if was != now {
			out = append(out, entities.LocationHistory{LocationID: next.ID, Field: field, OldValue: was, NewValue: now})
		}
	}
	add("name", prev.Name, next.Name)
	add("type", prev.Type, next.Type)
	add("latitude", forms.Format(prev.Latitude), forms.Format(next.Latitude))
	add("longitude", forms.Format(prev.Longitude), forms.Format(next.Longitude))
	add("altitude", forms.Format(prev.Altitude), forms.Format(next.Altitude))
	add("description", prev.Description, next.Description)

	was, err := payload(prev)
	if err != nil {
		return nil, err
	}
	now, err := payload(next)
	if err != nil {
		return nil, err
	}
	keys := make(map[string]struct{}, len(was)+len(now))
	for k := range was {
		keys[k] = struct{}{}
	}
	for k := range now {
		keys[k] = struct{}{}
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)
	for _, k := range sorted {
		add(DetailPrefix+k, value(was[k]), value(now[k]))
	}
	return out, nil
}

func payload(l *entities.Location) (map[string]any, error) {
	m := map[string]any{}
	if len(l.Detail) == 0 || string(l.Detail) == "null" {
		return m, nil
	}
	if err := json.Unmarshal(l.Detail, &m); err != nil {
		return nil, fmt.Errorf("decode location %d detail: %w", l.ID, err)
	}
	return m, nil
}

func value(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return forms.Format(t)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
