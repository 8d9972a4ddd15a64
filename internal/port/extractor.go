package port

// Extractor pulls plain text out of a document on disk.
type Extractor interface {
	Extract(path string) (string, error)

	// Extensions lists the lowercase file extensions handled, with the dot.
	Extensions() []string
}
