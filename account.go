package veritas

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"strings"
)

// MaxLevel is the depth of the account hierarchy.
const MaxLevel = 4

// Account is one node of the account hierarchy.
type Account struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Level  int    `json:"level"`            // 1..4
	Parent string `json:"parent,omitempty"` // empty at level 1
}

// Hierarchy is the static tree of accounts. It is immutable after
// construction and safe for concurrent readers.
type Hierarchy struct {
	accounts map[string]Account
	children map[string][]string // parent code → sorted child codes
	paths    map[string]string   // code → full path
}

// NewHierarchy builds and validates the account tree. Structural
// corruption (duplicate code, missing parent, wrong parent level, level
// out of range, cycle) is the one condition the core treats as fatal:
// no correct result is possible downstream, so it fails here, before
// any record is processed.
func NewHierarchy(accounts []Account) (*Hierarchy, error) {
	h := &Hierarchy{
		accounts: make(map[string]Account, len(accounts)),
		children: make(map[string][]string),
		paths:    make(map[string]string, len(accounts)),
	}
	for _, a := range accounts {
		if a.Code == "" {
			return nil, fmt.Errorf("account with empty code (name %q)", a.Name)
		}
		if _, dup := h.accounts[a.Code]; dup {
			return nil, fmt.Errorf("duplicate account code %q", a.Code)
		}
		if a.Level < 1 || a.Level > MaxLevel {
			return nil, fmt.Errorf("account %q: level %d out of range 1..%d", a.Code, a.Level, MaxLevel)
		}
		if a.Level == 1 && a.Parent != "" {
			return nil, fmt.Errorf("account %q: level 1 accounts cannot have a parent", a.Code)
		}
		if a.Level > 1 && a.Parent == "" {
			return nil, fmt.Errorf("account %q: level %d accounts must have a parent", a.Code, a.Level)
		}
		h.accounts[a.Code] = a
	}
	for _, a := range h.accounts {
		if a.Parent == "" {
			continue
		}
		parent, ok := h.accounts[a.Parent]
		if !ok {
			return nil, fmt.Errorf("account %q references non-existent parent %q", a.Code, a.Parent)
		}
		if parent.Level != a.Level-1 {
			return nil, fmt.Errorf("account %q (level %d) has parent %q at level %d, want %d",
				a.Code, a.Level, a.Parent, parent.Level, a.Level-1)
		}
		h.children[a.Parent] = append(h.children[a.Parent], a.Code)
	}
	for parent := range h.children {
		slices.Sort(h.children[parent])
	}
	// The level constraints above already forbid cycles: a parent is
	// always exactly one level above its child. Walking up from every
	// node double-checks that and precomputes the full paths.
	for code := range h.accounts {
		path, err := h.buildPath(code)
		if err != nil {
			return nil, err
		}
		h.paths[code] = path
	}
	return h, nil
}

func (h *Hierarchy) buildPath(code string) (string, error) {
	names := make([]string, 0, MaxLevel)
	seen := make(map[string]bool, MaxLevel)
	for cur := code; cur != ""; {
		if seen[cur] {
			return "", fmt.Errorf("cycle detected in account hierarchy at %q", cur)
		}
		seen[cur] = true
		a, ok := h.accounts[cur]
		if !ok {
			return "", fmt.Errorf("account %q references non-existent parent %q", code, cur)
		}
		names = append(names, a.Name)
		cur = a.Parent
	}
	slices.Reverse(names)
	return strings.Join(names, "/"), nil
}

// Account returns the account with this code, or nil if unknown.
func (h *Hierarchy) Account(code string) *Account {
	a, ok := h.accounts[code]
	if !ok {
		return nil
	}
	return &a
}

// Path returns the full hierarchy path of an account, such as
// "Operations/Leases/Office".
func (h *Hierarchy) Path(code string) (string, error) {
	p, ok := h.paths[code]
	if !ok {
		return "", fmt.Errorf("account not found: %q", code)
	}
	return p, nil
}

// Children returns the direct children of an account, sorted by code.
func (h *Hierarchy) Children(code string) []Account {
	codes := h.children[code]
	out := make([]Account, 0, len(codes))
	for _, c := range codes {
		out = append(out, h.accounts[c])
	}
	return out
}

// IsLeaf reports whether the account has no children.
func (h *Hierarchy) IsLeaf(code string) bool {
	return len(h.children[code]) == 0
}

// Len returns the number of accounts.
func (h *Hierarchy) Len() int { return len(h.accounts) }

// All iterates over all accounts sorted by code.
func (h *Hierarchy) All() iter.Seq[Account] {
	return func(yield func(Account) bool) {
		codes := slices.Collect(maps.Keys(h.accounts))
		slices.Sort(codes)
		for _, code := range codes {
			if !yield(h.accounts[code]) {
				return
			}
		}
	}
}

// Roots iterates over level-1 accounts sorted by code.
func (h *Hierarchy) Roots() iter.Seq[Account] {
	return func(yield func(Account) bool) {
		for a := range h.All() {
			if a.Level == 1 && !yield(a) {
				return
			}
		}
	}
}

// Codes returns all account codes, sorted.
func (h *Hierarchy) Codes() []string {
	codes := slices.Collect(maps.Keys(h.accounts))
	slices.Sort(codes)
	return codes
}
