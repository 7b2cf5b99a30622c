package ai

import (
	"context"
	"strings"
	"time"
)

const (
	BasicGeneratorName = "basic"

	DefaultReply = "Gracias por tu mensaje. Como chatbot de demostración, tengo respuestas limitadas. " +
		"En una implementación real, aquí se conectaría con un modelo de lenguaje como MistralAI, Groq u Ollama."
	UnavailableReply = "⚠️ El modelo solicitado no está disponible en este servidor. " +
		"Revisa la configuración del proveedor para usar este modelo."
)

type keywordReply struct {
	keyword string
	reply   string
}

// Checked in order; the first keyword found in the prompt wins.
var keywordReplies = []keywordReply{
	{"hola", "¡Hola! Soy tu asistente virtual. ¿En qué puedo ayudarte hoy?"},
	{"ayuda", "Puedo ayudarte con información, responder preguntas o simplemente conversar. ¿Qué necesitas?"},
	{"gracias", "¡De nada! Estoy aquí para ayudarte. ¿Hay algo más en lo que pueda asistirte?"},
	{"adiós", "¡Hasta luego! Ha sido un placer ayudarte. Vuelve pronto si necesitas algo más."},
}

// KeywordGenerator answers from a fixed table of keyword replies.
type KeywordGenerator struct {
	fallback  string
	charDelay time.Duration
}

func NewKeywordGenerator(charDelay time.Duration) *KeywordGenerator {
	return &KeywordGenerator{fallback: DefaultReply, charDelay: charDelay}
}

// WithFallback returns a copy answering fallback when no keyword matches.
func (g *KeywordGenerator) WithFallback(fallback string) *KeywordGenerator {
	return &KeywordGenerator{fallback: fallback, charDelay: g.charDelay}
}

func (g *KeywordGenerator) Name() string { return BasicGeneratorName }

func (g *KeywordGenerator) Reply(prompt string) string {
	lowered := strings.ToLower(prompt)
	for _, kr := range keywordReplies {
		if strings.Contains(lowered, kr.keyword) {
			return kr.reply
		}
	}
	return g.fallback
}

func (g *KeywordGenerator) Stream(ctx context.Context, prompt string, onChunk ChunkFunc) (string, error) {
	return streamRunes(ctx, g.Reply(prompt), g.charDelay, onChunk)
}
