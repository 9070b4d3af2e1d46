package fhir

// Parameters is the FHIR R4 Parameters resource used as operation output,
// e.g. the ConceptMap/$translate response.
type Parameters struct {
	ResourceType string                `json:"resourceType"`
	Parameter    []ParametersParameter `json:"parameter,omitempty"`
}

type ParametersParameter struct {
	Name         string                `json:"name"`
	ValueBoolean *bool                 `json:"valueBoolean,omitempty"`
	ValueString  *string               `json:"valueString,omitempty"`
	ValueCode    *string               `json:"valueCode,omitempty"`
	ValueUri     *string               `json:"valueUri,omitempty"`
	ValueCoding  *Coding               `json:"valueCoding,omitempty"`
	Part         []ParametersParameter `json:"part,omitempty"`
}

// Named returns all parameters (or parts) with the given name, in order.
func Named(params []ParametersParameter, name string) []ParametersParameter {
	var out []ParametersParameter
	for _, p := range params {
		if p.Name == name {
			out = append(out, p)
		}
	}
	return out
}
