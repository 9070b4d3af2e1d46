package fhirstore

import (
	"fmt"
	"time"

	"github.com/SanteonNL/namaste-bridge/cmd/bridge/terminology"
	"github.com/SanteonNL/namaste-bridge/models/fhir"
	"github.com/SanteonNL/namaste-bridge/util"
)

func toCodeSystem(id string, catalog *terminology.CodeCatalog) (*fhir.CodeSystem, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	status, err := parseStatus(catalog.Status)
	if err != nil {
		return nil, err
	}

	concepts := make([]fhir.CodeSystemConcept, 0, len(catalog.Concepts))
	for _, c := range catalog.Concepts {
		concepts = append(concepts, fhir.CodeSystemConcept{
			Code:    util.StringPtr(c.Code),
			Display: util.StringPtr(c.Display),
		})
	}

	return &fhir.CodeSystem{
		ResourceType: "CodeSystem",
		Id:           util.StringPtr(id),
		Url:          util.StringPtrOrNil(catalog.URL),
		Name:         util.StringPtrOrNil(catalog.Name),
		Title:        util.StringPtrOrNil(catalog.Title),
		Status:       status,
		Content:      util.StringPtr("complete"),
		Count:        util.IntPtr(len(concepts)),
		Concept:      concepts,
	}, nil
}

// fromCodeSystem flattens the concept hierarchy depth-first, parents before
// children, which keeps a flat catalog in its original order.
func fromCodeSystem(cs *fhir.CodeSystem) *terminology.CodeCatalog {
	catalog := &terminology.CodeCatalog{
		URL:    util.StringValue(cs.Url),
		Name:   util.StringValue(cs.Name),
		Title:  util.StringValue(cs.Title),
		Status: cs.Status.Code(),
	}
	var walk func([]fhir.CodeSystemConcept)
	walk = func(concepts []fhir.CodeSystemConcept) {
		for _, c := range concepts {
			if c.Code != nil {
				catalog.Concepts = append(catalog.Concepts, terminology.Concept{
					Code:    *c.Code,
					Display: util.StringValue(c.Display),
				})
			}
			walk(c.Concept)
		}
	}
	walk(cs.Concept)
	return catalog
}

func toConceptMap(id string, table *terminology.MappingTable) (*fhir.ConceptMap, error) {
	if table == nil {
		return nil, fmt.Errorf("mapping table is required")
	}
	status, err := parseStatus(table.Status)
	if err != nil {
		return nil, err
	}

	elements := make([]fhir.ConceptMapGroupElement, 0, len(table.Group))
	for _, entry := range table.Group {
		targets := make([]fhir.ConceptMapGroupElementTarget, 0, len(entry.Targets))
		for _, t := range entry.Targets {
			equivalence, err := fhir.ParseConceptMapEquivalence(string(t.Equivalence))
			if err != nil {
				return nil, fmt.Errorf("source code %s: %w", entry.SourceCode, err)
			}
			targets = append(targets, fhir.ConceptMapGroupElementTarget{
				Code:        util.StringPtr(t.Code),
				Display:     util.StringPtrOrNil(t.Display),
				Equivalence: equivalence,
			})
		}
		elements = append(elements, fhir.ConceptMapGroupElement{
			Code:    util.StringPtr(entry.SourceCode),
			Display: util.StringPtrOrNil(entry.SourceDisplay),
			Target:  targets,
		})
	}

	date := fhir.NewDateTime(time.Now().UTC())
	return &fhir.ConceptMap{
		ResourceType: "ConceptMap",
		Id:           util.StringPtr(id),
		Url:          util.StringPtrOrNil(table.URL),
		Name:         util.StringPtrOrNil(table.Name),
		Title:        util.StringPtrOrNil(table.Title),
		Status:       status,
		Date:         &date,
		SourceUri:    util.StringPtrOrNil(table.SourceURI),
		TargetUri:    util.StringPtrOrNil(table.TargetURI),
		Group: []fhir.ConceptMapGroup{{
			Source:  util.StringPtrOrNil(table.SourceURI),
			Target:  util.StringPtrOrNil(table.TargetURI),
			Element: elements,
		}},
	}, nil
}

// translateMatches collects the concept of every "match" parameter of a
// $translate response. Matches without a coded concept are skipped.
func translateMatches(params *fhir.Parameters) []terminology.Target {
	var targets []terminology.Target
	for _, match := range fhir.Named(params.Parameter, "match") {
		var target terminology.Target
		for _, part := range match.Part {
			switch part.Name {
			case "equivalence":
				target.Equivalence = terminology.Equivalence(util.StringValue(part.ValueCode))
			case "concept":
				if part.ValueCoding != nil {
					target.Code = util.StringValue(part.ValueCoding.Code)
					target.Display = util.StringValue(part.ValueCoding.Display)
					target.System = util.StringValue(part.ValueCoding.System)
				}
			}
		}
		if target.Code != "" {
			targets = append(targets, target)
		}
	}
	return targets
}

func parseStatus(status string) (fhir.PublicationStatus, error) {
	if status == "" {
		return fhir.PublicationStatusActive, nil
	}
	return fhir.ParsePublicationStatus(status)
}
