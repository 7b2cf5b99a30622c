package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"remobot/internal/ai"
	"remobot/internal/model"
)

type stubGenerator struct {
	name   string
	chunks []string
}

func (g *stubGenerator) Name() string { return g.name }

func (g *stubGenerator) Stream(_ context.Context, _ string, onChunk ai.ChunkFunc) (string, error) {
	var full strings.Builder
	for _, c := range g.chunks {
		if err := onChunk(c); err != nil {
			return full.String(), err
		}
		full.WriteString(c)
	}
	return full.String(), nil
}

type recordingPublisher struct {
	turns []model.Turn
	err   error
}

func (p *recordingPublisher) PublishTurn(_ context.Context, turn model.Turn) error {
	if p.err != nil {
		return p.err
	}
	p.turns = append(p.turns, turn)
	return nil
}

func newChatService(t *testing.T, publisher TurnPublisher, gens ...ai.Generator) (*ChatService, *HistoryService) {
	t.Helper()
	history := newHistoryService(t)
	registry := ai.NewRegistry(ai.NewKeywordGenerator(0), ai.BasicGeneratorName, gens...)
	return NewChatService(history, registry, publisher, zap.NewNop()), history
}

func streamCollect(t *testing.T, svc *ChatService, in StreamTurnInput) (*TurnResult, string) {
	t.Helper()
	var out strings.Builder
	res, err := svc.StreamTurn(context.Background(), in, func(c string) error {
		out.WriteString(c)
		return nil
	})
	require.NoError(t, err)
	return res, out.String()
}

func TestStreamTurnCreatesSessionOnFirstTurn(t *testing.T) {
	svc, history := newChatService(t, nil)

	res, streamed := streamCollect(t, svc, StreamTurnInput{Username: "ana", Content: "  Hola bot  "})
	assert.True(t, res.Created)
	assert.Equal(t, ai.BasicGeneratorName, res.Generator)
	assert.Equal(t, res.Reply, streamed)
	assert.True(t, strings.HasPrefix(res.Reply, "¡Hola!"))

	loaded, err := history.Load(context.Background(), "ana", res.ChatID)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "Hola bot", loaded[0].Content)
	assert.Equal(t, res.Reply, loaded[1].Content)
}

func TestStreamTurnAppendsToExistingSession(t *testing.T) {
	svc, history := newChatService(t, nil)

	first, _ := streamCollect(t, svc, StreamTurnInput{Username: "ana", Content: "hola"})
	second, _ := streamCollect(t, svc, StreamTurnInput{Username: "ANA", ChatID: first.ChatID, Content: "gracias"})
	assert.False(t, second.Created)
	assert.Equal(t, first.ChatID, second.ChatID)

	loaded, err := history.Load(context.Background(), "ana", first.ChatID)
	require.NoError(t, err)
	assert.Len(t, loaded, 4)
	assert.Equal(t, "gracias", loaded[2].Content)
}

func TestStreamTurnPublishesWhenAsync(t *testing.T) {
	pub := &recordingPublisher{}
	svc, history := newChatService(t, pub)

	first, _ := streamCollect(t, svc, StreamTurnInput{Username: "ana", Content: "hola"})
	assert.Empty(t, pub.turns, "first turn is saved inline to obtain the id")

	_, _ = streamCollect(t, svc, StreamTurnInput{Username: "ana", ChatID: first.ChatID, Content: "ayuda"})
	require.Len(t, pub.turns, 1)
	assert.Equal(t, "Ana", pub.turns[0].Username)
	assert.Equal(t, "ayuda", pub.turns[0].User.Content)

	loaded, err := history.Load(context.Background(), "ana", first.ChatID)
	require.NoError(t, err)
	assert.Len(t, loaded, 2, "published turn is persisted by the worker, not inline")
}

func TestStreamTurnFallsBackWhenPublishFails(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc, history := newChatService(t, pub)

	first, _ := streamCollect(t, svc, StreamTurnInput{Username: "ana", Content: "hola"})
	_, _ = streamCollect(t, svc, StreamTurnInput{Username: "ana", ChatID: first.ChatID, Content: "ayuda"})

	loaded, err := history.Load(context.Background(), "ana", first.ChatID)
	require.NoError(t, err)
	assert.Len(t, loaded, 4)
}

func TestStreamTurnValidation(t *testing.T) {
	svc, history := newChatService(t, nil)

	_, err := svc.StreamTurn(context.Background(), StreamTurnInput{Username: "ana", Content: "   "}, func(string) error { return nil })
	assert.ErrorIs(t, err, ErrMessageEmpty)

	res, _ := streamCollect(t, svc, StreamTurnInput{Username: "ana", Content: "hola"})
	_, err = svc.StreamTurn(context.Background(), StreamTurnInput{Username: "bea", ChatID: res.ChatID, Content: "hola"}, func(string) error { return nil })
	assert.ErrorIs(t, err, ErrChatNotFound)

	list, err := history.List(context.Background(), "bea")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStreamTurnSelectsGeneratorAndFillsEmptyReply(t *testing.T) {
	svc, _ := newChatService(t, nil,
		&stubGenerator{name: "echo", chunks: []string{"uno ", "dos"}},
		&stubGenerator{name: "silent"},
	)

	res, streamed := streamCollect(t, svc, StreamTurnInput{Username: "ana", Content: "x", Model: "echo"})
	assert.Equal(t, "echo", res.Generator)
	assert.Equal(t, "uno dos", res.Reply)
	assert.Equal(t, "uno dos", streamed)

	res, streamed = streamCollect(t, svc, StreamTurnInput{Username: "ana", Content: "x", Model: "silent"})
	assert.Equal(t, emptyReply, res.Reply)
	assert.Equal(t, emptyReply, streamed)

	res, _ = streamCollect(t, svc, StreamTurnInput{Username: "ana", Content: "nada", Model: "unknown"})
	assert.Equal(t, ai.UnavailableReply, res.Reply)
}

func TestStreamTurnDoesNotPersistWhenClientGoesAway(t *testing.T) {
	svc, history := newChatService(t, nil)
	gone := errors.New("client gone")

	_, err := svc.StreamTurn(context.Background(), StreamTurnInput{Username: "ana", Content: "hola"}, func(string) error { return gone })
	assert.ErrorIs(t, err, gone)

	list, err := history.List(context.Background(), "ana")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStreamTurnCancelledRequestStoresNothing(t *testing.T) {
	svc, history := newChatService(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.StreamTurn(ctx, StreamTurnInput{Username: "ana", Content: "hola"}, func(string) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)

	list, err := history.List(context.Background(), "ana")
	require.NoError(t, err)
	assert.Empty(t, list)
}
