package fhir

import (
	"encoding/json"
	"fmt"
)

// PublicationStatus is the FHIR publication-status value set.
type PublicationStatus int

const (
	PublicationStatusDraft PublicationStatus = iota
	PublicationStatusActive
	PublicationStatusRetired
	PublicationStatusUnknown
)

func (code PublicationStatus) Code() string {
	switch code {
	case PublicationStatusDraft:
		return "draft"
	case PublicationStatusActive:
		return "active"
	case PublicationStatusRetired:
		return "retired"
	case PublicationStatusUnknown:
		return "unknown"
	}
	return "<unknown>"
}

// ParsePublicationStatus maps a status code to its enum value.
func ParsePublicationStatus(s string) (PublicationStatus, error) {
	switch s {
	case "draft":
		return PublicationStatusDraft, nil
	case "active":
		return PublicationStatusActive, nil
	case "retired":
		return PublicationStatusRetired, nil
	case "unknown":
		return PublicationStatusUnknown, nil
	}
	return PublicationStatusUnknown, fmt.Errorf("unknown PublicationStatus code `%s`", s)
}

func (code PublicationStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(code.Code())
}

func (code *PublicationStatus) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParsePublicationStatus(s)
	if err != nil {
		return err
	}
	*code = parsed
	return nil
}

// ConceptMapEquivalence is the FHIR R4 concept-map-equivalence value set, in
// declaration order.
type ConceptMapEquivalence int

const (
	ConceptMapEquivalenceRelatedto ConceptMapEquivalence = iota
	ConceptMapEquivalenceEquivalent
	ConceptMapEquivalenceEqual
	ConceptMapEquivalenceWider
	ConceptMapEquivalenceSubsumes
	ConceptMapEquivalenceNarrower
	ConceptMapEquivalenceSpecializes
	ConceptMapEquivalenceInexact
	ConceptMapEquivalenceUnmatched
	ConceptMapEquivalenceDisjoint
)

var equivalenceCodes = []string{
	"relatedto",
	"equivalent",
	"equal",
	"wider",
	"subsumes",
	"narrower",
	"specializes",
	"inexact",
	"unmatched",
	"disjoint",
}

func (code ConceptMapEquivalence) Code() string {
	if code < 0 || int(code) >= len(equivalenceCodes) {
		return "<unknown>"
	}
	return equivalenceCodes[code]
}

// ParseConceptMapEquivalence maps an equivalence code to its enum value.
func ParseConceptMapEquivalence(s string) (ConceptMapEquivalence, error) {
	for i, c := range equivalenceCodes {
		if c == s {
			return ConceptMapEquivalence(i), nil
		}
	}
	return ConceptMapEquivalenceRelatedto, fmt.Errorf("unknown ConceptMapEquivalence code `%s`", s)
}

func (code ConceptMapEquivalence) MarshalJSON() ([]byte, error) {
	return json.Marshal(code.Code())
}

func (code *ConceptMapEquivalence) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseConceptMapEquivalence(s)
	if err != nil {
		return err
	}
	*code = parsed
	return nil
}
