package terminology

import "strings"

// Concept is one (code, display) pair of a code catalog.
type Concept struct {
	Code    string `json:"code"`
	Display string `json:"display"`
}

// CodeCatalog is an ordered vocabulary. URL is the stable identifier a
// MappingTable uses as its source URI.
type CodeCatalog struct {
	URL      string    `json:"url"`
	Name     string    `json:"name"`
	Title    string    `json:"title"`
	Status   string    `json:"status"`
	Concepts []Concept `json:"concepts"`
}

// Matching returns the concepts whose display contains query, ignoring case,
// in catalog order.
func (c *CodeCatalog) Matching(query string) []Concept {
	needle := strings.ToLower(query)
	var out []Concept
	for _, concept := range c.Concepts {
		if strings.Contains(strings.ToLower(concept.Display), needle) {
			out = append(out, concept)
		}
	}
	return out
}

// Equivalence qualifies how a target relates to its source concept.
type Equivalence string

const (
	EquivalenceRelatedTo   Equivalence = "relatedto"
	EquivalenceEquivalent  Equivalence = "equivalent"
	EquivalenceEqual       Equivalence = "equal"
	EquivalenceWider       Equivalence = "wider"
	EquivalenceSubsumes    Equivalence = "subsumes"
	EquivalenceNarrower    Equivalence = "narrower"
	EquivalenceSpecializes Equivalence = "specializes"
	EquivalenceInexact     Equivalence = "inexact"
	EquivalenceUnmatched   Equivalence = "unmatched"
	EquivalenceDisjoint    Equivalence = "disjoint"
)

// Target is one candidate translation of a source code.
type Target struct {
	Code        string      `json:"code"`
	Display     string      `json:"display"`
	System      string      `json:"system"`
	Equivalence Equivalence `json:"equivalence"`
}

// MappingEntry maps one source code to one or more targets.
type MappingEntry struct {
	SourceCode    string   `json:"sourceCode"`
	SourceDisplay string   `json:"sourceDisplay,omitempty"`
	Targets       []Target `json:"targets"`
}

// TableInfo is the descriptive part of a MappingTable.
type TableInfo struct {
	URL       string `json:"url"`
	Name      string `json:"name"`
	Title     string `json:"title"`
	Status    string `json:"status"`
	SourceURI string `json:"sourceUri"`
	TargetURI string `json:"targetUri"`
}

// MappingTable is a directed source→target association. Build tables with
// NewMappingTable so Lookup is served from the hash index.
type MappingTable struct {
	TableInfo
	Group []MappingEntry `json:"group"`

	index map[string]int
}

// NewMappingTable validates entries and indexes them by source code.
func NewMappingTable(info TableInfo, entries []MappingEntry) (*MappingTable, error) {
	index := make(map[string]int, len(entries))
	for i, entry := range entries {
		if _, exists := index[entry.SourceCode]; exists {
			return nil, &RowError{Row: i + 1, Code: entry.SourceCode, Err: ErrDuplicateSourceCode}
		}
		if len(entry.Targets) == 0 {
			return nil, &RowError{Row: i + 1, Field: "targets", Err: ErrMalformedRow}
		}
		index[entry.SourceCode] = i
	}
	return &MappingTable{TableInfo: info, Group: entries, index: index}, nil
}

// Lookup returns the entry for a source code.
func (m *MappingTable) Lookup(sourceCode string) (MappingEntry, bool) {
	if m.index == nil {
		for _, entry := range m.Group {
			if entry.SourceCode == sourceCode {
				return entry, true
			}
		}
		return MappingEntry{}, false
	}
	i, ok := m.index[sourceCode]
	if !ok {
		return MappingEntry{}, false
	}
	return m.Group[i], true
}

// Source identifies where a search result came from.
type Source string

const (
	SourceLocal    Source = "LOCAL"
	SourceExternal Source = "EXTERNAL"
)

// SearchResult is the normalised record both vocabularies are folded into.
type SearchResult struct {
	Source  Source `json:"source"`
	Code    string `json:"code"`
	Display string `json:"display"`
}

// SearchResults is the merged outcome of one federated search. Unavailable
// lists the sources that failed and contributed nothing.
type SearchResults struct {
	Query       string         `json:"query"`
	Results     []SearchResult `json:"results"`
	Unavailable []Source       `json:"unavailable"`
}

// Translation is the resolved target of a source code.
type Translation struct {
	SourceCode    string      `json:"source_code"`
	TargetCode    string      `json:"target_code"`
	TargetDisplay string      `json:"target_display"`
	TargetSystem  string      `json:"target_system"`
	Equivalence   Equivalence `json:"equivalence,omitempty"`
	// Candidates holds every target the store returned, in store order.
	// Only filled when the caller asks for it.
	Candidates []Target `json:"candidates,omitempty"`
}
