package markdown

import (
	"regexp"
	"strings"
)

// Matches fenced code blocks. Group 1 is the language, group 2 the code.
var codeBlockRegexp = regexp.MustCompile("(?sm)^```([a-zA-Z]*)\\n(.*?)^```")

// Block is one parsed segment of assistant output.
type Block interface {
	md() string
	Content() string
	Language() string
}

// TextBlock is plain prose.
type TextBlock struct {
	Text string
}

func (b *TextBlock) md() string { return b.Text }

// Content returns the text.
func (b *TextBlock) Content() string { return b.Text }

// Language returns the language tag of a text block.
func (b *TextBlock) Language() string { return "txt" }

// CodeBlock is a fenced code block with an optional language tag.
type CodeBlock struct {
	language string
	code     string
}

func (b *CodeBlock) md() string {
	return "```" + b.language + "\n" + b.code + "\n```"
}

// Content returns the code without the fences.
func (b *CodeBlock) Content() string { return b.code }

// Language returns the language tag.
func (b *CodeBlock) Language() string { return b.language }

// ParseBlocks splits content into alternating text and code blocks.
func ParseBlocks(content string) []Block {
	var result []Block

	matches := codeBlockRegexp.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		if content != "" {
			result = append(result, &TextBlock{Text: content})
		}
		return result
	}

	lastEnd := 0
	for _, match := range matches {
		fullStart, fullEnd := match[0], match[1]
		langStart, langEnd := match[2], match[3]
		codeStart, codeEnd := match[4], match[5]

		if fullStart > lastEnd {
			if text := content[lastEnd:fullStart]; text != "" {
				result = append(result, &TextBlock{Text: text})
			}
		}

		var language string
		if langStart >= 0 && langEnd >= 0 {
			language = content[langStart:langEnd]
		}
		if language == "" {
			language = "md"
		}

		var code string
		if codeStart >= 0 && codeEnd >= 0 {
			code = content[codeStart:codeEnd]
		}

		result = append(result, &CodeBlock{
			language: language,
			// Tabs confuse the terminal renderer.
			code: strings.ReplaceAll(strings.Trim(code, "\n"), "\t", "  "),
		})
		lastEnd = fullEnd
	}

	if lastEnd < len(content) {
		if text := content[lastEnd:]; text != "" {
			result = append(result, &TextBlock{Text: text})
		}
	}
	return result
}
