package constants

// DocumentType identifies the category of document a processor owns.
type DocumentType string

// Stable identifiers (used as map keys, resource namespaces, statistics keys).
const (
	DocTypeInvoice DocumentType = "invoice"
	DocTypeCV      DocumentType = "cv"

	// DocTypeUnknown is the sentinel returned when no processor claims a document.
	DocTypeUnknown DocumentType = "unknown"
)

func (d DocumentType) String() string {
	return string(d)
}
