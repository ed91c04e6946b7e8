package render

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// PlainLanguage is used when a block has no tag and no lexer recognizes it.
const PlainLanguage = "plaintext"

// CodeBlock is one fenced code block of a markdown source.
type CodeBlock struct {
	// Index is the 1-based position of the block within its source.
	Index    int
	Language string
	Code     string
	// Detected is true when Language was guessed rather than taken from the fence.
	Detected bool

	fenceStart int
	topLevel   bool
}

var parser = goldmark.New().Parser()

// ExtractCodeBlocks returns the fenced code blocks of src in document order.
// An unterminated fence, as seen mid-stream, runs to the end of src.
func ExtractCodeBlocks(src string) []CodeBlock {
	source := []byte(src)
	doc := parser.Parse(text.NewReader(source))

	var blocks []CodeBlock
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fcb, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		var code bytes.Buffer
		lines := fcb.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			code.Write(seg.Value(source))
		}

		block := CodeBlock{
			Index:      len(blocks) + 1,
			Language:   string(fcb.Language(source)),
			Code:       code.String(),
			fenceStart: fenceLineStart(fcb, source),
			topLevel:   n.Parent() != nil && n.Parent().Kind() == ast.KindDocument,
		}
		if block.Language == "" {
			block.Language = DetectLanguage(block.Code)
			block.Detected = true
		}
		blocks = append(blocks, block)
		return ast.WalkSkipChildren, nil
	})
	return blocks
}

// DetectLanguage guesses the language of code with chroma's analysers.
func DetectLanguage(code string) string {
	if strings.TrimSpace(code) == "" {
		return PlainLanguage
	}
	lexer := lexers.Analyse(code)
	if lexer == nil {
		return PlainLanguage
	}
	cfg := lexer.Config()
	if len(cfg.Aliases) > 0 {
		return cfg.Aliases[0]
	}
	return strings.ToLower(cfg.Name)
}

// fenceLineStart finds the byte offset of the opening fence line, or -1.
func fenceLineStart(fcb *ast.FencedCodeBlock, source []byte) int {
	var pos int
	switch {
	case fcb.Info != nil:
		pos = fcb.Info.Segment.Start
	case fcb.Lines().Len() > 0:
		// The first content line follows the fence line.
		pos = fcb.Lines().At(0).Start - 1
		if pos < 0 {
			return -1
		}
	default:
		return -1
	}
	return bytes.LastIndexByte(source[:pos], '\n') + 1
}

// AnnotateCodeBlocks puts a "lang · copy #n" header above every top-level code block and
// writes the detected language into untagged fences so they are highlighted.
func AnnotateCodeBlocks(src string) string {
	blocks := ExtractCodeBlocks(src)
	if len(blocks) == 0 {
		return src
	}

	out := src
	// Edit back to front so earlier offsets stay valid.
	for i := len(blocks) - 1; i >= 0; i-- {
		b := blocks[i]
		if !b.topLevel || b.fenceStart < 0 {
			continue
		}
		if b.Detected {
			out = tagFence(out, b.fenceStart, b.Language)
		}
		out = out[:b.fenceStart] + CodeHeader(b) + out[b.fenceStart:]
	}
	return out
}

// CodeHeader is the markdown paragraph placed above a code block.
func CodeHeader(b CodeBlock) string {
	return fmt.Sprintf("\n*%s · copy #%s*\n\n", b.Language, strconv.Itoa(b.Index))
}

// tagFence inserts lang right after the fence characters of the line at start.
func tagFence(src string, start int, lang string) string {
	i := start
	for i < len(src) && src[i] == ' ' {
		i++
	}
	if i >= len(src) {
		return src
	}
	fence := src[i]
	if fence != '`' && fence != '~' {
		return src
	}
	for i < len(src) && src[i] == fence {
		i++
	}
	return src[:i] + lang + src[i:]
}
