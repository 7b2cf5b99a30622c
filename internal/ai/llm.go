package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	GroqGeneratorName = "groq"

	MissingAPIKeyReply = "⚠️ API key de Groq no configurada. Por favor, configura GROQ_API_KEY en tus secrets o variables de entorno."
	transportErrorFmt  = "⚠️ Error al conectar con Groq API: %s"
)

// LLMGenerator streams answers from an OpenAI-compatible chat completion
// endpoint with a single-turn prompt.
type LLMGenerator struct {
	name       string
	client     *OpenAICompatibleClient
	cfg        ChatConfig
	chunkDelay time.Duration
	charDelay  time.Duration
	log        *zap.Logger
}

type LLMGeneratorOptions struct {
	Name       string
	Config     ChatConfig
	Timeout    time.Duration
	ChunkDelay time.Duration
	// CharDelay paces the error messages, which are streamed rune by rune.
	CharDelay time.Duration
	Logger    *zap.Logger
}

func NewLLMGenerator(opts LLMGeneratorOptions) *LLMGenerator {
	name := opts.Name
	if name == "" {
		name = GroqGeneratorName
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &LLMGenerator{
		name:       name,
		client:     NewOpenAICompatibleClient(opts.Timeout),
		cfg:        opts.Config,
		chunkDelay: opts.ChunkDelay,
		charDelay:  opts.CharDelay,
		log:        log.Named("generator." + name),
	}
}

func (g *LLMGenerator) Name() string { return g.name }

func (g *LLMGenerator) Stream(ctx context.Context, prompt string, onChunk ChunkFunc) (string, error) {
	if strings.TrimSpace(g.cfg.APIKey) == "" {
		g.log.Warn("llm api key missing")
		return streamRunes(ctx, MissingAPIKeyReply, g.charDelay, onChunk)
	}

	first := true
	paced := func(chunk string) error {
		if !first && g.chunkDelay > 0 {
			if err := sleep(ctx, g.chunkDelay); err != nil {
				return err
			}
		}
		first = false
		return onChunk(chunk)
	}

	messages := []ChatMessage{{Role: "user", Content: prompt}}
	full, err := g.client.StreamComplete(ctx, g.cfg, messages, paced)
	if err == nil {
		return full, nil
	}

	var cbErr *CallbackError
	if errors.As(err, &cbErr) {
		return full, cbErr.Err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return full, ctxErr
	}

	g.log.Warn("llm stream failed", zap.String("model", g.cfg.Model), zap.Error(err))
	tail, streamErr := streamRunes(ctx, fmt.Sprintf(transportErrorFmt, err.Error()), g.charDelay, onChunk)
	return full + tail, streamErr
}
