package terminology

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRows() []Row {
	return []Row{
		{SourceCode: "ASU001", SourceTerm: "Vata imbalance", TargetCode: "TM26.0", TargetTerm: "Vata pattern"},
		{SourceCode: "ASU002", SourceTerm: "Pitta imbalance", TargetCode: "TM26.1", TargetTerm: "Pitta pattern"},
		{SourceCode: "SID010", SourceTerm: "Kapha imbalance", TargetCode: "TM26.2", TargetTerm: "Kapha pattern"},
	}
}

func TestBuild(t *testing.T) {
	catalog, table, err := Build(sampleRows(), DefaultCatalogInfo(), DefaultTableInfo())
	require.NoError(t, err)

	assert.Equal(t, NamasteCodeSystemURL, catalog.URL)
	assert.Equal(t, "active", catalog.Status)
	assert.Equal(t, []Concept{
		{Code: "ASU001", Display: "Vata imbalance"},
		{Code: "ASU002", Display: "Pitta imbalance"},
		{Code: "SID010", Display: "Kapha imbalance"},
	}, catalog.Concepts)

	assert.Equal(t, catalog.URL, table.SourceURI)
	assert.Equal(t, ICD11EntitySystemURL, table.TargetURI)
	require.Len(t, table.Group, 3)

	entry, ok := table.Lookup("ASU002")
	require.True(t, ok)
	assert.Equal(t, []Target{{
		Code:        "TM26.1",
		Display:     "Pitta pattern",
		System:      ICD11EntitySystemURL,
		Equivalence: EquivalenceEquivalent,
	}}, entry.Targets)
}

func TestBuild_SourceURIFollowsCatalog(t *testing.T) {
	info := DefaultTableInfo()
	info.SourceURI = "http://example.org/other"

	catalog, table, err := Build(sampleRows(), DefaultCatalogInfo(), info)
	require.NoError(t, err)
	assert.Equal(t, catalog.URL, table.SourceURI)
}

func TestBuild_EveryMappedCodeIsACatalogConcept(t *testing.T) {
	for _, n := range []int{0, 1, 7, 250} {
		t.Run(fmt.Sprintf("%d rows", n), func(t *testing.T) {
			rows := make([]Row, n)
			for i := range rows {
				rows[i] = Row{
					SourceCode: fmt.Sprintf("NAM%04d", i),
					SourceTerm: fmt.Sprintf("term %d", i),
					TargetCode: fmt.Sprintf("TM%04d", i),
					TargetTerm: fmt.Sprintf("target %d", i),
				}
			}

			catalog, table, err := Build(rows, DefaultCatalogInfo(), DefaultTableInfo())
			require.NoError(t, err)
			assert.Len(t, catalog.Concepts, n)

			codes := make(map[string]bool, n)
			for _, c := range catalog.Concepts {
				codes[c.Code] = true
			}
			for _, entry := range table.Group {
				assert.True(t, codes[entry.SourceCode], "mapped code %s missing from catalog", entry.SourceCode)
				assert.NotEmpty(t, entry.Targets)
			}
		})
	}
}

func TestBuild_TrimsWhitespace(t *testing.T) {
	rows := []Row{{SourceCode: " ASU001 ", SourceTerm: "Vata\t", TargetCode: " TM26.0", TargetTerm: "Vata pattern "}}

	catalog, table, err := Build(rows, DefaultCatalogInfo(), DefaultTableInfo())
	require.NoError(t, err)
	assert.Equal(t, Concept{Code: "ASU001", Display: "Vata"}, catalog.Concepts[0])

	entry, ok := table.Lookup("ASU001")
	require.True(t, ok)
	assert.Equal(t, "TM26.0", entry.Targets[0].Code)
	assert.Equal(t, "Vata pattern", entry.Targets[0].Display)
}

func TestBuild_MalformedRow(t *testing.T) {
	tests := []struct {
		name  string
		row   Row
		field string
	}{
		{"missing source code", Row{SourceTerm: "a", TargetCode: "b", TargetTerm: "c"}, "source code"},
		{"blank source term", Row{SourceCode: "A", SourceTerm: "  ", TargetCode: "b", TargetTerm: "c"}, "source term"},
		{"missing target code", Row{SourceCode: "A", SourceTerm: "a", TargetTerm: "c"}, "target code"},
		{"missing target term", Row{SourceCode: "A", SourceTerm: "a", TargetCode: "b"}, "target term"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := append(sampleRows(), tt.row)
			catalog, table, err := Build(rows, DefaultCatalogInfo(), DefaultTableInfo())

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedRow))
			assert.Nil(t, catalog)
			assert.Nil(t, table)

			var rowErr *RowError
			require.True(t, errors.As(err, &rowErr))
			assert.Equal(t, 4, rowErr.Row)
			assert.Equal(t, tt.field, rowErr.Field)
		})
	}
}

func TestBuild_DuplicateSourceCode(t *testing.T) {
	rows := append(sampleRows(), Row{SourceCode: "ASU001", SourceTerm: "again", TargetCode: "X", TargetTerm: "Y"})

	catalog, table, err := Build(rows, DefaultCatalogInfo(), DefaultTableInfo())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateSourceCode))
	assert.False(t, errors.Is(err, ErrMalformedRow))
	assert.Nil(t, catalog, "no partial catalog on duplicate")
	assert.Nil(t, table)
	assert.Contains(t, err.Error(), "ASU001")
}

func TestNewMappingTable_RejectsEmptyTargets(t *testing.T) {
	_, err := NewMappingTable(DefaultTableInfo(), []MappingEntry{{SourceCode: "A"}})
	assert.True(t, errors.Is(err, ErrMalformedRow))
}

func TestMappingTable_LookupWithoutIndex(t *testing.T) {
	table := &MappingTable{Group: []MappingEntry{{SourceCode: "A", Targets: []Target{{Code: "X"}}}}}

	entry, ok := table.Lookup("A")
	require.True(t, ok)
	assert.Equal(t, "X", entry.Targets[0].Code)

	_, ok = table.Lookup("B")
	assert.False(t, ok)
}

func TestCodeCatalog_Matching(t *testing.T) {
	catalog := &CodeCatalog{Concepts: []Concept{
		{Code: "A", Display: "foo"},
		{Code: "B", Display: "Foobar"},
		{Code: "C", Display: "bar"},
	}}

	assert.Equal(t, []Concept{{Code: "A", Display: "foo"}, {Code: "B", Display: "Foobar"}}, catalog.Matching("FOO"))
	assert.Empty(t, catalog.Matching("baz"))
}
