package port

type Chunker interface {
	Split(text string) []string
}
