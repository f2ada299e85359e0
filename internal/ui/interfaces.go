package ui

// MarkdownRenderer turns an assistant answer into terminal output.
type MarkdownRenderer interface {
	Render(markdown string) (string, error)
}
