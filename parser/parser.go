// parser/parser.go
package parser

// Parser turns raw model text into a usable value
type Parser interface {
	Parse(text string) (interface{}, error)
	FormatInstructions() string
}

// StrParser returns the model text unchanged
type StrParser struct{}

func (StrParser) Parse(text string) (interface{}, error) { return text, nil }

func (StrParser) FormatInstructions() string { return "" }
