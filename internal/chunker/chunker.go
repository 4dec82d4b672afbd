// Package chunker splits loaded document text into overlapping,
// metadata-tagged passages ready for embedding.
package chunker

import (
	"regexp"
	"strings"

	"github.com/rag-engine/ragctl/internal/domain"
)

// Strategy selects the splitting algorithm.
type Strategy string

const (
	StrategyRecursive Strategy = "recursive"
	StrategySemantic  Strategy = "semantic"
)

var defaultSeparators = []string{"\n\n", "\n", ". ", " "}

// Option configures a Chunker.
type Option func(*Chunker)

// WithStrategy selects recursive (default) or semantic splitting.
func WithStrategy(s Strategy) Option {
	return func(c *Chunker) { c.strategy = s }
}

// WithChunkSize sets the target chunk size, in characters unless
// WithTokens is also supplied.
func WithChunkSize(n int) Option {
	return func(c *Chunker) { c.chunkSize = n }
}

// WithOverlap sets the overlap window (characters or tokens, matching
// WithChunkSize's unit).
func WithOverlap(n int) Option {
	return func(c *Chunker) { c.overlap = n }
}

// WithTokens switches chunk_size/overlap from characters to cl100k_base
// tokens.
func WithTokens(useTokens bool) Option {
	return func(c *Chunker) { c.useTokens = useTokens }
}

// WithOverlapRatio sets the semantic splitter's overlap_ratio parameter.
func WithOverlapRatio(r float64) Option {
	return func(c *Chunker) { c.overlapRatio = r }
}

// Chunker splits document text according to the configured strategy.
type Chunker struct {
	strategy     Strategy
	chunkSize    int
	overlap      int
	useTokens    bool
	overlapRatio float64
	tok          *tokenCounter
}

// New constructs a Chunker with sensible defaults (recursive, 512/102
// chars, matching the reference 512-char window with 20% overlap).
func New(opts ...Option) *Chunker {
	c := &Chunker{
		strategy:     StrategyRecursive,
		chunkSize:    512,
		overlap:      102,
		overlapRatio: 0.2,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.useTokens || c.strategy == StrategySemantic {
		c.tok = newTokenCounter()
	}
	return c
}

var atxHeading = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)

type mdSegment struct {
	section string
	body    string
}

// splitMarkdownSections segments markdown by ATX headings; each segment
// keeps the heading line in its body and carries the heading text as its
// section.
func splitMarkdownSections(text string) []mdSegment {
	lines := strings.Split(text, "\n")
	var segments []mdSegment
	var currentSection string
	var currentLines []string
	flush := func() {
		if len(currentLines) == 0 {
			return
		}
		body := strings.Join(currentLines, "\n")
		if strings.TrimSpace(body) != "" {
			segments = append(segments, mdSegment{section: currentSection, body: body})
		}
	}
	for _, line := range lines {
		if m := atxHeading.FindStringSubmatch(line); m != nil {
			flush()
			currentSection = strings.TrimSpace(m[2])
			currentLines = []string{line}
			continue
		}
		currentLines = append(currentLines, line)
	}
	flush()
	if len(segments) == 0 {
		return []mdSegment{{body: text}}
	}
	return segments
}

// Chunk splits a loaded document into content-addressed chunks, applying
// the markdown ATX pre-split first when the document is markdown.
func (c *Chunker) Chunk(doc domain.Document) []domain.Chunk {
	text := strings.TrimSpace(doc.Text)
	if text == "" {
		return nil
	}

	var segments []mdSegment
	if doc.FileType == "md" || doc.FileType == "markdown" {
		segments = splitMarkdownSections(text)
	} else {
		segments = []mdSegment{{section: doc.Section, body: text}}
	}

	var chunks []domain.Chunk
	ordinal := 0
	for _, seg := range segments {
		section := seg.section
		if section == "" {
			section = doc.Section
		}
		var parts []string
		switch c.strategy {
		case StrategySemantic:
			parts = c.splitSemantic(seg.body)
		default:
			parts = c.splitRecursive(seg.body)
		}
		for _, p := range parts {
			body := strings.TrimSpace(p)
			if body == "" {
				continue
			}
			chunks = append(chunks, domain.NewChunk(body, doc.Source, doc.FileType, ordinal, doc.Page, section))
			ordinal++
		}
	}
	return chunks
}

// splitRecursive implements the structure-aware recursive splitter over
// the fixed separator ladder, in character or token units.
func (c *Chunker) splitRecursive(text string) []string {
	if c.useTokens {
		return recursiveSplit(tokenUnit{c.tok}, text, defaultSeparators, c.chunkSize, c.overlap)
	}
	return recursiveSplit(charUnit{}, text, defaultSeparators, c.chunkSize, c.overlap)
}

// unit abstracts the measurement space (characters or tokens) the
// recursive splitter operates in.
type unit interface {
	size(s string) int
	// trimTail returns the tail of s that fits the overflow-handling
	// window when no further separators remain to recurse into.
	trimTail(s string, chunkSize, overlap int) string
	// finalStride performs the fixed-stride fallback once the separator
	// ladder is exhausted.
	finalStride(s string, chunkSize, overlap int) []string
}

type charUnit struct{}

func (charUnit) size(s string) int { return len([]rune(s)) }

func (charUnit) trimTail(s string, chunkSize, _ int) string {
	r := []rune(s)
	if len(r) <= chunkSize {
		return s
	}
	return string(r[len(r)-chunkSize:])
}

func (charUnit) finalStride(s string, chunkSize, overlap int) []string {
	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize
	}
	r := []rune(s)
	var out []string
	for i := 0; i < len(r); i += step {
		end := i + chunkSize
		if end > len(r) {
			end = len(r)
		}
		out = append(out, string(r[i:end]))
	}
	return out
}

type tokenUnit struct{ tok *tokenCounter }

func (u tokenUnit) size(s string) int { return u.tok.count(s) }

// trimTail trims to chunkSize-overlap tokens (not chunkSize), per the
// token-mode overlap-carry behavior.
func (u tokenUnit) trimTail(s string, chunkSize, overlap int) string {
	n := chunkSize - overlap
	if n <= 0 {
		n = chunkSize
	}
	return u.tok.tailTokens(s, n)
}

func (u tokenUnit) finalStride(s string, chunkSize, overlap int) []string {
	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize
	}
	return u.tok.strideSlices(s, chunkSize, step)
}

// recursiveSplit is the structure-aware splitter: greedily accumulate
// separator-delimited parts, recursing into the remaining separator ladder
// when a part overflows chunkSize, and falling back to a fixed stride once
// separators are exhausted. The separator is reattached as a suffix of the
// part preceding it (not a prefix of the part following it), so a flushed
// chunk ends on the separator rather than the next one starting with it.
func recursiveSplit(u unit, text string, seps []string, chunkSize, overlap int) []string {
	if u.size(text) <= chunkSize {
		if strings.TrimSpace(text) != "" {
			return []string{text}
		}
		return nil
	}
	if len(seps) == 0 {
		return u.finalStride(text, chunkSize, overlap)
	}

	sep := seps[0]
	parts := strings.Split(text, sep)
	var chunks []string
	current := ""
	for i, p := range parts {
		add := p
		if i != len(parts)-1 {
			add = p + sep
		}
		if u.size(current)+u.size(add) <= chunkSize {
			current += add
			continue
		}
		if strings.TrimSpace(current) != "" {
			chunks = append(chunks, strings.TrimSpace(current))
		}
		if u.size(add) > chunkSize && len(seps) > 1 {
			sub := recursiveSplit(u, add, seps[1:], chunkSize, overlap)
			if len(sub) > 0 {
				chunks = append(chunks, sub[:len(sub)-1]...)
				current = sub[len(sub)-1]
			} else {
				current = add
			}
		} else if u.size(add) > chunkSize {
			current = u.trimTail(add, chunkSize, overlap)
		} else {
			current = add
		}
	}
	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, strings.TrimSpace(current))
	}
	return chunks
}

var paragraphBreak = regexp.MustCompile(`\n\s*\n+`)

// splitSemantic splits on blank-line paragraph boundaries and greedily
// merges paragraphs under the token budget, seeding each new buffer with
// the overlap suffix of the previous one.
func (c *Chunker) splitSemantic(text string) []string {
	paras := paragraphBreak.Split(text, -1)
	chunkSizeTokens := c.chunkSize
	var out []string
	var buf []string
	bufTokens := 0
	for _, p := range paras {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		pt := c.tok.count(p)
		if bufTokens > 0 && bufTokens+pt > chunkSizeTokens {
			out = append(out, strings.Join(buf, "\n\n"))
			buf, bufTokens = c.overlapSuffix(buf)
		}
		buf = append(buf, p)
		bufTokens += pt
	}
	if len(buf) > 0 {
		joined := strings.Join(buf, "\n\n")
		if strings.TrimSpace(joined) != "" {
			out = append(out, joined)
		}
	}
	return out
}

// overlapSuffix returns the shortest suffix of paras whose combined token
// count is at least overlapRatio * chunkSizeTokens.
func (c *Chunker) overlapSuffix(paras []string) ([]string, int) {
	minTokens := c.overlapRatio * float64(c.chunkSize)
	total := 0
	for i := len(paras) - 1; i >= 0; i-- {
		total += c.tok.count(paras[i])
		if float64(total) >= minTokens {
			suffix := append([]string(nil), paras[i:]...)
			return suffix, total
		}
	}
	return append([]string(nil), paras...), total
}
