package utils

import (
	"encoding/json"
	"strings"

	"github.com/archivio-maledetto/archivio/archivio/config"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

// Focused returns the name and typed text of the option being completed.
func Focused(e *handler.AutocompleteEvent) (string, string) {
	focused := e.Data.Focused()
	var value string
	if focused.Value != nil {
		if err := json.Unmarshal(focused.Value, &value); err != nil {
			return focused.Name, ""
		}
	}
	return focused.Name, strings.TrimSpace(value)
}

// Choice is one autocomplete entry: a display name and the id sent back.
type Choice struct {
	Name  string
	Value string
}

// AutocompleteChoices converts choices, honouring Discord's limits.
func AutocompleteChoices(choices []Choice) []discord.AutocompleteChoice {
	out := make([]discord.AutocompleteChoice, 0, min(len(choices), config.MaxAutocompleteItems))
	for _, c := range choices {
		if len(out) == config.MaxAutocompleteItems {
			break
		}
		out = append(out, discord.AutocompleteChoiceString{
			Name:  Truncate(c.Name, 100),
			Value: c.Value,
		})
	}
	return out
}
