package api

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/SanteonNL/namaste-bridge/models/fhir"
	"github.com/SanteonNL/namaste-bridge/util"
)

// Submission is an accepted bundle: the envelope plus the kind and id of
// each entry. Entry bodies are not interpreted.
type Submission struct {
	ID      string
	Entries []fhir.ResourceHeader
}

// SubjectID is the id of the first Patient entry, or "" when there is none.
func (s *Submission) SubjectID() string {
	for _, entry := range s.Entries {
		if entry.ResourceType == "Patient" {
			return util.StringValue(entry.Id)
		}
	}
	return ""
}

// parseSubmission accepts a JSON object that declares itself a Bundle and
// whose entries each declare a resource type.
func parseSubmission(body []byte) (*Submission, error) {
	var bundle fhir.Bundle
	if err := json.Unmarshal(body, &bundle); err != nil {
		return nil, fmt.Errorf("body is not a JSON object: %w", err)
	}
	if bundle.ResourceType != "Bundle" {
		if bundle.ResourceType == "" {
			return nil, errors.New("resourceType is missing")
		}
		return nil, fmt.Errorf("resourceType must be Bundle, got %s", bundle.ResourceType)
	}

	submission := &Submission{
		ID:      util.StringValue(bundle.Id),
		Entries: make([]fhir.ResourceHeader, 0, len(bundle.Entry)),
	}
	for i, entry := range bundle.Entry {
		if len(entry.Resource) == 0 {
			return nil, fmt.Errorf("entry %d has no resource", i)
		}
		var header fhir.ResourceHeader
		if err := json.Unmarshal(entry.Resource, &header); err != nil {
			return nil, fmt.Errorf("entry %d resource is not a JSON object: %w", i, err)
		}
		if header.ResourceType == "" {
			return nil, fmt.Errorf("entry %d resource has no resourceType", i)
		}
		submission.Entries = append(submission.Entries, header)
	}
	return submission, nil
}
