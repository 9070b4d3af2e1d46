package fhir

// CodeSystem is the FHIR R4 CodeSystem resource, reduced to the elements a
// terminology server needs to host a flat vocabulary.
type CodeSystem struct {
	ResourceType string              `json:"resourceType"`
	Id           *string             `json:"id,omitempty"`
	Meta         *Meta               `json:"meta,omitempty"`
	Url          *string             `json:"url,omitempty"`
	Version      *string             `json:"version,omitempty"`
	Name         *string             `json:"name,omitempty"`
	Title        *string             `json:"title,omitempty"`
	Status       PublicationStatus   `json:"status"`
	Content      *string             `json:"content,omitempty"`
	Count        *int                `json:"count,omitempty"`
	Concept      []CodeSystemConcept `json:"concept,omitempty"`
}

// CodeSystemConcept is one entry of CodeSystem.concept. Nested concepts are
// kept so hierarchical code systems round-trip without loss.
type CodeSystemConcept struct {
	Code       *string             `json:"code,omitempty"`
	Display    *string             `json:"display,omitempty"`
	Definition *string             `json:"definition,omitempty"`
	Concept    []CodeSystemConcept `json:"concept,omitempty"`
}

// Meta carries the server-maintained resource metadata.
type Meta struct {
	VersionId   *string   `json:"versionId,omitempty"`
	LastUpdated *DateTime `json:"lastUpdated,omitempty"`
}

// Coding is a reference to a code defined by a terminology system.
type Coding struct {
	System  *string `json:"system,omitempty"`
	Version *string `json:"version,omitempty"`
	Code    *string `json:"code,omitempty"`
	Display *string `json:"display,omitempty"`
}
