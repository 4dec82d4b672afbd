package chunker

import (
	"math"

	"github.com/pkoukk/tiktoken-go"
)

// tokenCounter measures text length in cl100k_base tokens, falling back to
// a chars/4 approximation when the encoder can't be constructed (e.g. no
// network access to fetch the BPE rank file).
type tokenCounter struct {
	enc *tiktoken.Tiktoken
}

func newTokenCounter() *tokenCounter {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return &tokenCounter{}
	}
	return &tokenCounter{enc: enc}
}

func (t *tokenCounter) count(s string) int {
	if t.enc == nil {
		return approxTokens(s)
	}
	return len(t.enc.Encode(s, nil, nil))
}

// tailTokens decodes the last n tokens of s. When the encoder is
// unavailable it approximates n tokens as the last 4*n runes of s.
func (t *tokenCounter) tailTokens(s string, n int) string {
	if n <= 0 {
		return s
	}
	if t.enc == nil {
		// approximate: n tokens ~= 4*n chars
		r := []rune(s)
		chars := n * 4
		if len(r) <= chars {
			return s
		}
		return string(r[len(r)-chars:])
	}
	toks := t.enc.Encode(s, nil, nil)
	if len(toks) <= n {
		return s
	}
	return t.enc.Decode(toks[len(toks)-n:])
}

// strideSlices splits s into token windows of size chunkSize with the given
// step, decoding each window back to text.
func (t *tokenCounter) strideSlices(s string, chunkSize, step int) []string {
	if step <= 0 {
		step = chunkSize
	}
	if t.enc == nil {
		r := []rune(s)
		chars := chunkSize * 4
		charStep := step * 4
		var out []string
		for i := 0; i < len(r); i += charStep {
			end := i + chars
			if end > len(r) {
				end = len(r)
			}
			out = append(out, string(r[i:end]))
		}
		return out
	}
	toks := t.enc.Encode(s, nil, nil)
	var out []string
	for i := 0; i < len(toks); i += step {
		end := i + chunkSize
		if end > len(toks) {
			end = len(toks)
		}
		out = append(out, t.enc.Decode(toks[i:end]))
	}
	return out
}

func approxTokens(s string) int {
	return int(math.Ceil(float64(len([]rune(s))) / 4))
}
