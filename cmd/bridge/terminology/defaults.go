package terminology

// Identifiers of the NAMASTE vocabulary and its ICD-11 TM2 concept map.
const (
	NamasteCodeSystemID  = "namaste-cs"
	NamasteCodeSystemURL = "http://sih.gov.in/fhir/namaste-codes"
	NamasteConceptMapID  = "namaste-to-icd11-tm2-cm"
	NamasteConceptMapURL = "http://sih.gov.in/fhir/namaste-to-icd-conceptmap"
	ICD11EntitySystemURL = "http://id.who.int/icd/entity"
)

// DefaultCatalogInfo describes the NAMASTE code system.
func DefaultCatalogInfo() CatalogInfo {
	return CatalogInfo{
		URL:    NamasteCodeSystemURL,
		Name:   "NAMASTECodes",
		Title:  "NAMASTE Terminology Code System",
		Status: "active",
	}
}

// DefaultTableInfo describes the NAMASTE to ICD-11 TM2 concept map.
func DefaultTableInfo() TableInfo {
	return TableInfo{
		URL:       NamasteConceptMapURL,
		Name:      "NAMASTEToICD11TM2Map",
		Title:     "NAMASTE to ICD-11 TM2 Concept Map",
		Status:    "active",
		SourceURI: NamasteCodeSystemURL,
		TargetURI: ICD11EntitySystemURL,
	}
}
