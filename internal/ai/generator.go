package ai

import (
	"context"
	"strings"
	"time"
)

// ChunkFunc receives one increment of a streamed answer. Returning an error
// stops the stream.
type ChunkFunc func(chunk string) error

// Generator produces an answer for a single prompt as a sequence of chunks.
//
// Implementations never fail because of their own backend: upstream problems
// are turned into a readable message streamed in place of the answer. The
// only error returned is one produced by onChunk.
type Generator interface {
	Name() string
	Stream(ctx context.Context, prompt string, onChunk ChunkFunc) (string, error)
}

// streamRunes emits text one rune at a time, sleeping delay between runes.
func streamRunes(ctx context.Context, text string, delay time.Duration, onChunk ChunkFunc) (string, error) {
	var sent strings.Builder
	for _, r := range text {
		if err := ctx.Err(); err != nil {
			return sent.String(), err
		}
		if delay > 0 {
			if err := sleep(ctx, delay); err != nil {
				return sent.String(), err
			}
		}
		chunk := string(r)
		if err := onChunk(chunk); err != nil {
			return sent.String(), err
		}
		sent.WriteString(chunk)
	}
	return sent.String(), nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
