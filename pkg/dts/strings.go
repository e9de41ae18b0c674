package dts

import "strings"

// StringTable is the shape's deduplicated name list. Names are matched
// case-insensitively, the way the runtime resolves them: two names get
// distinct indices only when they differ after case folding, and the
// first spelling interned is the one stored.
type StringTable struct {
	names []string
	index map[string]int32
}

// NewStringTable returns an empty table.
func NewStringTable() *StringTable {
	return &StringTable{index: make(map[string]int32)}
}

// Intern returns the index of name, appending it if it is not present.
func (t *StringTable) Intern(name string) int32 {
	if t.index == nil {
		t.index = make(map[string]int32)
	}
	key := strings.ToLower(name)
	if i, ok := t.index[key]; ok {
		return i
	}
	i := int32(len(t.names))
	t.names = append(t.names, name)
	t.index[key] = i
	return i
}

// Lookup returns the index of name without adding it.
func (t *StringTable) Lookup(name string) (int32, bool) {
	i, ok := t.index[strings.ToLower(name)]
	return i, ok
}

// Name returns the name stored at index i.
func (t *StringTable) Name(i int32) (string, bool) {
	if i < 0 || int(i) >= len(t.names) {
		return "", false
	}
	return t.names[i], true
}

// Len returns the number of names.
func (t *StringTable) Len() int {
	return len(t.names)
}

// Names returns a copy of the names in index order.
func (t *StringTable) Names() []string {
	return append([]string(nil), t.names...)
}
