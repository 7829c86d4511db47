// Package oracle is the quota-charging question channel. Answers come from an
// external Answerer; the rules only govern who may ask and what gets recorded.
package oracle

import (
	"context"
	"strings"
)

//go:generate mockgen -source=answerer.go -destination=mock/answerer.go -package=mock

// FallbackAnswer is returned to the player when the answerer fails.
const FallbackAnswer = "Mi dispiace, al momento non riesco a elaborare la tua richiesta. Riprova più tardi."

// Answerer produces an answer to a player's question.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// StaticAnswerer replies with a fixed text. It stands in when no language
// model is configured.
type StaticAnswerer struct {
	Text string
}

func (a StaticAnswerer) Answer(_ context.Context, _ string) (string, error) {
	if strings.TrimSpace(a.Text) == "" {
		return "Non ho informazioni a riguardo.", nil
	}
	return a.Text, nil
}
