package fhir

import "encoding/json"

// Bundle is a container for a collection of resources. Entry resources are
// kept raw; callers decode only the parts they need.
type Bundle struct {
	ResourceType string        `json:"resourceType"`
	Id           *string       `json:"id,omitempty"`
	Type         *string       `json:"type,omitempty"`
	Entry        []BundleEntry `json:"entry,omitempty"`
}

type BundleEntry struct {
	FullUrl  *string         `json:"fullUrl,omitempty"`
	Resource json.RawMessage `json:"resource,omitempty"`
}

// ResourceHeader is the part every FHIR resource shares.
type ResourceHeader struct {
	ResourceType string  `json:"resourceType"`
	Id           *string `json:"id,omitempty"`
}
