package ai

import (
	"context"
	"errors"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, g Generator, prompt string) (string, []string) {
	t.Helper()
	var chunks []string
	full, err := g.Stream(context.Background(), prompt, func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})
	require.NoError(t, err)
	return full, chunks
}

func TestKeywordGeneratorReplies(t *testing.T) {
	g := NewKeywordGenerator(0)

	tests := []struct {
		name   string
		prompt string
		want   string
	}{
		{"greeting lower", "hola que tal", keywordReplies[0].reply},
		{"greeting upper", "HOLA!", keywordReplies[0].reply},
		{"greeting mixed inside word", "bueno, HoLa amigo", keywordReplies[0].reply},
		{"help", "necesito ayuda", keywordReplies[1].reply},
		{"thanks", "Muchas GRACIAS", keywordReplies[2].reply},
		{"goodbye", "Adiós", keywordReplies[3].reply},
		{"first keyword wins", "gracias, hola", keywordReplies[0].reply},
		{"unmatched", "what is the weather", DefaultReply},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			full, chunks := collect(t, g, tt.prompt)
			assert.Equal(t, tt.want, full)
			assert.Len(t, chunks, utf8.RuneCountInString(tt.want))
			for _, c := range chunks {
				assert.Equal(t, 1, utf8.RuneCountInString(c))
			}
		})
	}
}

func TestKeywordGeneratorStopsOnCallbackError(t *testing.T) {
	g := NewKeywordGenerator(0)
	stop := errors.New("client gone")

	calls := 0
	full, err := g.Stream(context.Background(), "hola", func(string) error {
		calls++
		if calls == 3 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, utf8.RuneCountInString(full))
}

func TestKeywordGeneratorHonoursContextDuringDelay(t *testing.T) {
	g := NewKeywordGenerator(50_000_000) // 50ms per rune
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Stream(ctx, "hola", func(string) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestKeywordGeneratorHonoursContextWithoutDelay(t *testing.T) {
	g := NewKeywordGenerator(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	full, err := g.Stream(ctx, "hola", func(string) error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, full)
	assert.Zero(t, calls)
}

func TestRegistryResolve(t *testing.T) {
	basic := NewKeywordGenerator(0)
	llm := NewLLMGenerator(LLMGeneratorOptions{Config: ChatConfig{BaseURL: "http://x", Model: "m"}})
	r := NewRegistry(basic, "groq", llm)

	assert.Same(t, llm, r.Resolve(""))
	assert.Same(t, llm, r.Resolve("GROQ"))
	assert.Same(t, basic, r.Resolve("basic"))
	assert.Equal(t, []string{"basic", "groq"}, r.Names())

	unknown := r.Resolve("mistral")
	full, _ := collect(t, unknown, "something unmatched")
	assert.Equal(t, UnavailableReply, full)

	full, _ = collect(t, unknown, "hola")
	assert.Equal(t, keywordReplies[0].reply, full)
}
