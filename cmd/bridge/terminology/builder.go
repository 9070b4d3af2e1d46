package terminology

import "strings"

// Row is one line of the source spreadsheet.
type Row struct {
	SourceCode string
	SourceTerm string
	TargetCode string
	TargetTerm string
}

// CatalogInfo is the descriptive part of a CodeCatalog.
type CatalogInfo struct {
	URL    string
	Name   string
	Title  string
	Status string
}

// Build turns rows into a code catalog and the mapping table that points from
// it to the target vocabulary. Every row contributes one concept and one
// mapping entry with a single "equivalent" target. Whitespace around fields
// is trimmed.
//
// The table's SourceURI is always the catalog URL. Build returns nothing but
// the error when any row is malformed or repeats a source code.
func Build(rows []Row, catalogInfo CatalogInfo, tableInfo TableInfo) (*CodeCatalog, *MappingTable, error) {
	tableInfo.SourceURI = catalogInfo.URL

	concepts := make([]Concept, 0, len(rows))
	entries := make([]MappingEntry, 0, len(rows))
	seen := make(map[string]int, len(rows))

	for i, raw := range rows {
		row, err := cleanRow(raw, i+1)
		if err != nil {
			return nil, nil, err
		}
		if _, dup := seen[row.SourceCode]; dup {
			return nil, nil, &RowError{Row: i + 1, Code: row.SourceCode, Err: ErrDuplicateSourceCode}
		}
		seen[row.SourceCode] = i

		concepts = append(concepts, Concept{Code: row.SourceCode, Display: row.SourceTerm})
		entries = append(entries, MappingEntry{
			SourceCode:    row.SourceCode,
			SourceDisplay: row.SourceTerm,
			Targets: []Target{{
				Code:        row.TargetCode,
				Display:     row.TargetTerm,
				System:      tableInfo.TargetURI,
				Equivalence: EquivalenceEquivalent,
			}},
		})
	}

	table, err := NewMappingTable(tableInfo, entries)
	if err != nil {
		return nil, nil, err
	}

	catalog := &CodeCatalog{
		URL:      catalogInfo.URL,
		Name:     catalogInfo.Name,
		Title:    catalogInfo.Title,
		Status:   catalogInfo.Status,
		Concepts: concepts,
	}
	return catalog, table, nil
}

// cleanRow trims every field and rejects rows with an empty one.
func cleanRow(row Row, n int) (Row, error) {
	fields := []struct {
		name  string
		value *string
	}{
		{"source code", &row.SourceCode},
		{"source term", &row.SourceTerm},
		{"target code", &row.TargetCode},
		{"target term", &row.TargetTerm},
	}
	for _, f := range fields {
		*f.value = strings.TrimSpace(*f.value)
		if *f.value == "" {
			return Row{}, &RowError{Row: n, Field: f.name, Err: ErrMalformedRow}
		}
	}
	return row, nil
}
