package port

type TokenCounter interface {
	Count(text string) int
}
