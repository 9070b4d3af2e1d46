package fhir

import "strings"

type OperationOutcome struct {
	ResourceType string                  `json:"resourceType"`
	Issue        []OperationOutcomeIssue `json:"issue"`
}

type OperationOutcomeIssue struct {
	Severity    string  `json:"severity"`
	Code        string  `json:"code"`
	Diagnostics *string `json:"diagnostics,omitempty"`
}

// Diagnostics joins the diagnostics of all issues.
func (o OperationOutcome) Diagnostics() string {
	var parts []string
	for _, issue := range o.Issue {
		if issue.Diagnostics != nil && *issue.Diagnostics != "" {
			parts = append(parts, *issue.Diagnostics)
		}
	}
	return strings.Join(parts, "; ")
}
