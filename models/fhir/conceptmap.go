package fhir

// ConceptMap is the FHIR R4 ConceptMap resource.
type ConceptMap struct {
	ResourceType string            `json:"resourceType"`
	Id           *string           `json:"id,omitempty"`
	Meta         *Meta             `json:"meta,omitempty"`
	Url          *string           `json:"url,omitempty"`
	Version      *string           `json:"version,omitempty"`
	Name         *string           `json:"name,omitempty"`
	Title        *string           `json:"title,omitempty"`
	Status       PublicationStatus `json:"status"`
	Date         *DateTime         `json:"date,omitempty"`
	SourceUri    *string           `json:"sourceUri,omitempty"`
	TargetUri    *string           `json:"targetUri,omitempty"`
	Group        []ConceptMapGroup `json:"group,omitempty"`
}

type ConceptMapGroup struct {
	Source  *string                  `json:"source,omitempty"`
	Target  *string                  `json:"target,omitempty"`
	Element []ConceptMapGroupElement `json:"element,omitempty"`
}

type ConceptMapGroupElement struct {
	Code    *string                        `json:"code,omitempty"`
	Display *string                        `json:"display,omitempty"`
	Target  []ConceptMapGroupElementTarget `json:"target,omitempty"`
}

type ConceptMapGroupElementTarget struct {
	Code        *string               `json:"code,omitempty"`
	Display     *string               `json:"display,omitempty"`
	Equivalence ConceptMapEquivalence `json:"equivalence"`
	Comment     *string               `json:"comment,omitempty"`
}
