package model

import (
	"sort"
	"strings"
)

// CategoryTable maps category labels to upstream numeric type IDs.
// A single table is shared by the related resolver and the category pager.
type CategoryTable struct {
	byName map[string]string
}

var defaultCategories = map[string]string{
	"20": "伦理片",
	"40": "悬疑片",
	"41": "战争片",
	"42": "犯罪片",
	"43": "剧情片",
	"44": "恐怖片",
	"45": "科幻片",
	"46": "爱情片",
	"47": "喜剧片",
	"48": "动作片",
	"49": "奇幻片",
	"50": "冒险片",
	"51": "惊悚片",
	"52": "动画片",
	"53": "记录片",
}

func NewCategoryTable(byID map[string]string) *CategoryTable {
	t := &CategoryTable{byName: make(map[string]string, len(byID))}
	for id, name := range byID {
		t.byName[name] = id
	}
	return t
}

func DefaultCategoryTable() *CategoryTable {
	return NewCategoryTable(defaultCategories)
}

// IDFor resolves a category label to its type ID. An exact label match wins;
// otherwise a label containing a known name (e.g. "动作片 HD") maps to that name's ID.
func (t *CategoryTable) IDFor(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	if id, ok := t.byName[name]; ok {
		return id, true
	}
	for _, known := range t.Names() {
		if strings.Contains(name, known) {
			return t.byName[known], true
		}
	}
	return "", false
}

// Names lists the known labels in a stable order.
func (t *CategoryTable) Names() []string {
	out := make([]string, 0, len(t.byName))
	for name := range t.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
