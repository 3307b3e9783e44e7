package storage

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// DiffSummary describes how the graph changes when moving from the current
// version to the target one.
func DiffSummary(current, target string, from, to int) string {
	head := fmt.Sprintf("Rolled back from version %d to version %d", from, to)

	cur, err1 := nodesByID(current)
	tgt, err2 := nodesByID(target)
	if err1 != nil || err2 != nil {
		return head + "; graph contents could not be compared"
	}

	var added, removed, changed []string
	for id, node := range tgt {
		old, ok := cur[id]
		if !ok {
			added = append(added, id)
			continue
		}
		if props := changedProperties(old, node); len(props) > 0 {
			changed = append(changed, fmt.Sprintf("%s (%s)", id, strings.Join(props, ", ")))
		}
	}
	for id := range cur {
		if _, ok := tgt[id]; !ok {
			removed = append(removed, id)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	sort.Strings(changed)

	if len(added)+len(removed)+len(changed) == 0 {
		return head + "; no node changes"
	}
	var parts []string
	if len(changed) > 0 {
		parts = append(parts, "changed "+strings.Join(changed, "; "))
	}
	if len(added) > 0 {
		parts = append(parts, "restored "+strings.Join(added, ", "))
	}
	if len(removed) > 0 {
		parts = append(parts, "removed "+strings.Join(removed, ", "))
	}
	return head + "; " + strings.Join(parts, "; ")
}

func nodesByID(graph string) (map[string]map[string]any, error) {
	var doc struct {
		Graph []map[string]any `json:"@graph"`
	}
	if err := json.Unmarshal([]byte(graph), &doc); err != nil {
		return nil, err
	}
	out := make(map[string]map[string]any, len(doc.Graph))
	for i, n := range doc.Graph {
		id, _ := n["@id"].(string)
		if id == "" {
			id = fmt.Sprintf("@graph[%d]", i)
		}
		out[id] = n
	}
	return out, nil
}

func changedProperties(a, b map[string]any) []string {
	keys := map[string]bool{}
	for k := range a {
		keys[k] = true
	}
	for k := range b {
		keys[k] = true
	}
	var out []string
	for k := range keys {
		if !reflect.DeepEqual(a[k], b[k]) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
