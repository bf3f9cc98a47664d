// Package markdown renders assistant output for the terminal. Finalized
// messages are rendered once and cached; the message still streaming is
// rendered incrementally, complete lines through glamour and the trailing
// partial line as plain text, so re-renders stay cheap at fragment rate.
package markdown

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
)

var customStyle = getCustomStyle()

// Renderer renders markdown with syntax highlighting at a fixed width.
type Renderer struct {
	glamour *glamour.TermRenderer
	width   int

	finalCache map[string]string

	// Incremental state for the streaming block.
	streamingKey        string
	streamingLineOffset int
	streamingCache      string
}

// NewRenderer returns a renderer wrapping at the given width.
func NewRenderer(width int) (*Renderer, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStyles(customStyle),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	return &Renderer{
		glamour:    renderer,
		width:      width,
		finalCache: map[string]string{},
	}, nil
}

// Render renders a finalized message, cached under its identity.
func (r *Renderer) Render(id, content string) string {
	if rendered, ok := r.finalCache[id]; ok {
		return rendered
	}
	var builder strings.Builder
	blocks := ParseBlocks(content)
	for i, block := range blocks {
		builder.WriteString(r.renderBlock(block.md()))
		if i < len(blocks)-1 {
			builder.WriteString("\n")
		}
	}
	rendered := builder.String()
	r.finalCache[id] = rendered
	return rendered
}

// RenderStreaming renders in-flight content. All blocks but the last are
// rendered fully; the last block renders its complete lines through
// glamour and appends the trailing partial line verbatim.
func (r *Renderer) RenderStreaming(id, content string) string {
	var builder strings.Builder
	blocks := ParseBlocks(content)
	for i, block := range blocks {
		if i == len(blocks)-1 {
			builder.WriteString(r.renderStreamingBlock(block, id, i))
		} else {
			builder.WriteString(r.renderBlock(block.md()))
			builder.WriteString("\n")
		}
	}
	return builder.String()
}

// SetWidth rebuilds the renderer at a new wrap width, dropping caches.
func (r *Renderer) SetWidth(width int) error {
	if r.width == width {
		return nil
	}
	rebuilt, err := NewRenderer(width)
	if err != nil {
		return err
	}
	*r = *rebuilt
	return nil
}

func (r *Renderer) renderBlock(content string) string {
	rendered, err := r.glamour.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(rendered, "\n")
}

func (r *Renderer) renderStreamingBlock(block Block, id string, index int) string {
	key := streamingKey(id, index)
	if r.streamingKey != key {
		r.streamingKey = key
		r.streamingLineOffset = 0
		r.streamingCache = ""
	}

	content := block.Content()
	if content == "" {
		return r.streamingCache
	}

	lines := strings.Split(content, "\n")
	completeLines := len(lines) - 1

	if completeLines > r.streamingLineOffset {
		completeContent := strings.Join(lines[:completeLines], "\n")
		if completeContent != "" {
			toRender := completeContent
			if code, ok := block.(*CodeBlock); ok {
				// Reconstruct the fence so highlighting applies.
				toRender = "```" + code.Language() + "\n" + completeContent + "\n```"
			}
			r.streamingCache = strings.TrimSuffix(r.renderBlock(toRender), "\n")
		}
		r.streamingLineOffset = completeLines
	}

	latestLine := lines[len(lines)-1]
	if latestLine == "" {
		return r.streamingCache
	}
	if r.streamingCache == "" {
		return latestLine
	}
	return r.streamingCache + "\n" + latestLine
}

func streamingKey(id string, index int) string {
	return fmt.Sprintf("%s/%d", id, index)
}

func getCustomStyle() ansi.StyleConfig {
	style := styles.DraculaStyleConfig
	zero := uint(0)
	style.Document.Margin = &zero
	style.CodeBlock.Margin = &zero
	style.CodeBlock.Indent = &zero
	style.CodeBlock.Prefix = ""
	style.CodeBlock.BlockPrefix = ""

	style.Code.Margin = &zero
	style.Code.Indent = &zero
	style.Code.Prefix = ""
	style.Code.Suffix = ""

	style.Paragraph.BlockPrefix = ""
	style.Paragraph.BlockSuffix = ""
	return style
}
