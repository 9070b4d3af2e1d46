package fhirstore

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/SanteonNL/namaste-bridge/cmd/bridge/terminology"
	"github.com/SanteonNL/namaste-bridge/models/fhir"
	"github.com/SanteonNL/namaste-bridge/util"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer is a tiny FHIR server that keeps PUT resources in memory and
// answers $translate from the stored ConceptMap.
type fakeServer struct {
	mu        sync.Mutex
	resources map[string][]byte
}

func newFakeServer(t *testing.T) *httptest.Server {
	t.Helper()
	f := &fakeServer{resources: make(map[string][]byte)}
	srv := httptest.NewServer(http.HandlerFunc(f.serveHTTP))
	t.Cleanup(srv.Close)
	return srv
}

func (f *fakeServer) serveHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/fhir/")
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		_, existed := f.resources[path]
		f.resources[path] = body
		if existed {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusCreated)
		}
	case strings.HasSuffix(path, "/$translate"):
		raw, ok := f.resources[strings.TrimSuffix(path, "/$translate")]
		if !ok {
			writeOutcome(w, http.StatusNotFound, "ConceptMap not found")
			return
		}
		var cm fhir.ConceptMap
		_ = json.Unmarshal(raw, &cm)
		writeJSON(w, http.StatusOK, translateResponse(&cm, r.URL.Query().Get("code")))
	case r.Method == http.MethodGet:
		raw, ok := f.resources[path]
		if !ok {
			writeOutcome(w, http.StatusNotFound, "Resource "+path+" is not known")
			return
		}
		w.Header().Set("Content-Type", fhirJSON)
		_, _ = w.Write(raw)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func translateResponse(cm *fhir.ConceptMap, code string) fhir.Parameters {
	result := false
	params := fhir.Parameters{ResourceType: "Parameters"}
	for _, group := range cm.Group {
		for _, element := range group.Element {
			if util.StringValue(element.Code) != code {
				continue
			}
			for _, target := range element.Target {
				result = true
				params.Parameter = append(params.Parameter, fhir.ParametersParameter{
					Name: "match",
					Part: []fhir.ParametersParameter{
						{Name: "equivalence", ValueCode: util.StringPtr(target.Equivalence.Code())},
						{Name: "concept", ValueCoding: &fhir.Coding{System: group.Target, Code: target.Code, Display: target.Display}},
					},
				})
			}
		}
	}
	params.Parameter = append([]fhir.ParametersParameter{{Name: "result", ValueBoolean: &result}}, params.Parameter...)
	return params
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", fhirJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeOutcome(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, fhir.OperationOutcome{
		ResourceType: "OperationOutcome",
		Issue:        []fhir.OperationOutcomeIssue{{Severity: "error", Code: "not-found", Diagnostics: &msg}},
	})
}

func newTestClient(baseURL string) *Client {
	return NewClient(Config{
		BaseURL:      baseURL + "/fhir",
		ConceptMapID: terminology.NamasteConceptMapID,
	}, zerolog.Nop())
}

func sampleData(t *testing.T) (*terminology.CodeCatalog, *terminology.MappingTable) {
	t.Helper()
	catalog, table, err := terminology.Build([]terminology.Row{
		{SourceCode: "ASU001", SourceTerm: "Vata imbalance", TargetCode: "TM26.0", TargetTerm: "Vata pattern"},
		{SourceCode: "ASU002", SourceTerm: "Pitta imbalance", TargetCode: "TM26.1", TargetTerm: "Pitta pattern"},
	}, terminology.DefaultCatalogInfo(), terminology.DefaultTableInfo())
	require.NoError(t, err)
	return catalog, table
}

func TestClient_RoundTrip(t *testing.T) {
	srv := newFakeServer(t)
	client := newTestClient(srv.URL)
	ctx := context.Background()
	catalog, table := sampleData(t)

	require.NoError(t, client.PutCatalog(ctx, terminology.NamasteCodeSystemID, catalog))
	require.NoError(t, client.PutMappingTable(ctx, terminology.NamasteConceptMapID, table))
	// PUT is an upsert.
	require.NoError(t, client.PutCatalog(ctx, terminology.NamasteCodeSystemID, catalog))

	got, err := client.GetCatalog(ctx, terminology.NamasteCodeSystemID)
	require.NoError(t, err)
	assert.Equal(t, catalog, got)

	targets, err := client.Translate(ctx, terminology.NamasteCodeSystemURL, "ASU001")
	require.NoError(t, err)
	assert.Equal(t, []terminology.Target{{
		Code:        "TM26.0",
		Display:     "Vata pattern",
		System:      terminology.ICD11EntitySystemURL,
		Equivalence: terminology.EquivalenceEquivalent,
	}}, targets)

	targets, err = client.Translate(ctx, terminology.NamasteCodeSystemURL, "UNKNOWN")
	require.NoError(t, err)
	assert.Empty(t, targets)
}

func TestClient_WireShape(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/fhir/ConceptMap/cm-1", r.URL.Path)
		assert.Equal(t, fhirJSON, r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	_, table := sampleData(t)
	require.NoError(t, newTestClient(srv.URL).PutMappingTable(context.Background(), "cm-1", table))

	assert.Equal(t, "ConceptMap", captured["resourceType"])
	assert.Equal(t, "active", captured["status"])
	assert.Equal(t, terminology.NamasteCodeSystemURL, captured["sourceUri"])
	groups := captured["group"].([]any)
	require.Len(t, groups, 1)
	group := groups[0].(map[string]any)
	assert.Equal(t, terminology.ICD11EntitySystemURL, group["target"])
	element := group["element"].([]any)[0].(map[string]any)
	assert.Equal(t, "ASU001", element["code"])
	target := element["target"].([]any)[0].(map[string]any)
	assert.Equal(t, "equivalent", target["equivalence"])
}

func TestClient_TranslateWithoutConceptPart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"resourceType":"Parameters","parameter":[
			{"name":"result","valueBoolean":true},
			{"name":"match","part":[{"name":"equivalence","valueCode":"equivalent"}]}]}`)
	}))
	defer srv.Close()

	targets, err := newTestClient(srv.URL).Translate(context.Background(), "s", "c")
	require.NoError(t, err)
	assert.Empty(t, targets)
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"not found", http.StatusNotFound, terminology.ErrNotFound},
		{"gone", http.StatusGone, terminology.ErrNotFound},
		{"server error", http.StatusInternalServerError, terminology.ErrUpstreamUnavailable},
		{"bad gateway", http.StatusBadGateway, terminology.ErrUpstreamUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeOutcome(w, tt.status, "boom")
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL).GetCatalog(context.Background(), "namaste-cs")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Contains(t, err.Error(), "boom")
		})
	}
}

func TestClient_BadRequestIsNeitherKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeOutcome(w, http.StatusBadRequest, "invalid code")
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Translate(context.Background(), "s", "c")
	require.Error(t, err)
	assert.False(t, errors.Is(err, terminology.ErrNotFound))
	assert.False(t, errors.Is(err, terminology.ErrUpstreamUnavailable))
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	client := newTestClient(baseURL)
	_, err := client.GetCatalog(context.Background(), "namaste-cs")
	assert.True(t, errors.Is(err, terminology.ErrUpstreamUnavailable))

	_, err = client.Translate(context.Background(), "s", "c")
	assert.True(t, errors.Is(err, terminology.ErrUpstreamUnavailable))
}

func TestClient_TypeLevelTranslate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fhir/ConceptMap/$translate", r.URL.Path)
		assert.Equal(t, "http://sys", r.URL.Query().Get("system"))
		assert.Equal(t, "A 1", r.URL.Query().Get("code"))
		writeJSON(w, http.StatusOK, fhir.Parameters{ResourceType: "Parameters"})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL + "/fhir/"}, zerolog.Nop())
	targets, err := client.Translate(context.Background(), "http://sys", "A 1")
	require.NoError(t, err)
	assert.Empty(t, targets)
}

func TestFromCodeSystem_FlattensHierarchy(t *testing.T) {
	cs := &fhir.CodeSystem{
		Url: util.StringPtr("http://example.org"),
		Concept: []fhir.CodeSystemConcept{
			{Code: util.StringPtr("P"), Display: util.StringPtr("parent"), Concept: []fhir.CodeSystemConcept{
				{Code: util.StringPtr("C"), Display: util.StringPtr("child")},
			}},
			{Code: util.StringPtr("S"), Display: util.StringPtr("sibling")},
		},
	}

	catalog := fromCodeSystem(cs)
	assert.Equal(t, []terminology.Concept{
		{Code: "P", Display: "parent"},
		{Code: "C", Display: "child"},
		{Code: "S", Display: "sibling"},
	}, catalog.Concepts)
}
