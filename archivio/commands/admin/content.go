package admin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/archivio-maledetto/archivio/archivio"
	"github.com/archivio-maledetto/archivio/archivio/aids"
	"github.com/archivio-maledetto/archivio/archivio/challenges"
	"github.com/archivio-maledetto/archivio/archivio/config"
	"github.com/archivio-maledetto/archivio/archivio/database/models"
	"github.com/archivio-maledetto/archivio/archivio/economy"
	"github.com/archivio-maledetto/archivio/archivio/gameerr"
	"github.com/archivio-maledetto/archivio/archivio/utils"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

func testOptions() []discord.ApplicationCommandOption {
	return []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:        "attributo",
			Description: "Attributo della prova",
			Required:    true,
		},
		discord.ApplicationCommandOptionInt{
			Name:        "difficolta",
			Description: "Difficoltà della prova",
			Required:    true,
			MinValue:    utils.Ptr(config.MinChallengeValue),
			MaxValue:    utils.Ptr(config.MaxChallengeValue),
		},
		discord.ApplicationCommandOptionString{
			Name:        "successo",
			Description: "Testo in caso di successo",
			Required:    false,
		},
		discord.ApplicationCommandOptionString{
			Name:        "parita",
			Description: "Testo in caso di parità",
			Required:    false,
		},
		discord.ApplicationCommandOptionString{
			Name:        "fallimento",
			Description: "Testo in caso di fallimento",
			Required:    false,
		},
	}
}

func testFromData(data discord.SlashCommandInteractionData) models.ContrastingTest {
	return models.ContrastingTest{
		Attribute:   data.String("attributo"),
		Difficulty:  data.Int("difficolta"),
		SuccessText: data.String("successo"),
		TieText:     data.String("parita"),
		FailureText: data.String("fallimento"),
	}
}

var ManageChallenges = discord.SlashCommandCreate{
	Name:        "gestisci-sfide",
	Description: "Crea e modifica le sfide (admin)",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "crea",
			Description: "Crea una sfida con la sua prima prova",
			Options: append([]discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "nome",
					Description: "Nome della sfida",
					Required:    true,
				},
			}, append(testOptions(),
				discord.ApplicationCommandOptionString{
					Name:        "descrizione",
					Description: "Descrizione",
					Required:    false,
				},
				discord.ApplicationCommandOptionString{
					Name:        "parole-chiave",
					Description: "Parole chiave separate da virgola",
					Required:    false,
				},
				discord.ApplicationCommandOptionBool{
					Name:        "rifugio",
					Description: "Il RIFUGIO può ridurre la difficoltà",
					Required:    false,
				},
			)...),
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "prova",
			Description: "Aggiunge una prova a una sfida esistente",
			Options: append([]discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:         "sfida",
					Description:  "La sfida",
					Required:     true,
					Autocomplete: true,
				},
			}, testOptions()...),
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "elimina",
			Description: "Elimina una sfida (i tentativi restano nello storico)",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:         "sfida",
					Description:  "La sfida",
					Required:     true,
					Autocomplete: true,
				},
			},
		},
	},
}

func CreateChallengeHandler(b *archivio.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.HandlerTimeout)
		defer cancel()

		data := e.SlashCommandInteractionData()
		ch, err := b.Challenges.Create(ctx, challenges.Input{
			Name:               data.String("nome"),
			Description:        data.String("descrizione"),
			Tests:              []models.ContrastingTest{testFromData(data)},
			Keywords:           challenges.ParseKeywords(data.String("parole-chiave")),
			AllowRefugeDefense: data.Bool("rifugio"),
			CreatedBy:          e.User().ID.String(),
		})
		if err != nil {
			return utils.EH.HandleServiceError(e, err)
		}
		return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf("Sfida **%s** creata", ch.Name))
	}
}

func AddChallengeTestHandler(b *archivio.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.HandlerTimeout)
		defer cancel()

		data := e.SlashCommandInteractionData()
		ch, err := b.Challenges.Get(ctx, data.String("sfida"))
		if err != nil {
			return utils.EH.HandleServiceError(e, err)
		}
		tests := append(append([]models.ContrastingTest(nil), ch.Tests...), testFromData(data))
		updated, err := b.Challenges.Update(ctx, ch.ID, challenges.Input{
			Name:               ch.Name,
			Description:        ch.Description,
			Tests:              tests,
			Keywords:           ch.Keywords,
			AllowRefugeDefense: ch.AllowRefugeDefense,
			CreatedBy:          ch.CreatedBy,
		})
		if err != nil {
			return utils.EH.HandleServiceError(e, err)
		}
		return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf("Prova %d aggiunta a **%s**", len(updated.Tests), updated.Name))
	}
}

func DeleteChallengeHandler(b *archivio.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.HandlerTimeout)
		defer cancel()

		if err := b.Challenges.Delete(ctx, e.SlashCommandInteractionData().String("sfida")); err != nil {
			return utils.EH.HandleServiceError(e, err)
		}
		return utils.EH.CreateSuccessEmbed(e, "Sfida eliminata")
	}
}

var ManageAids = discord.SlashCommandCreate{
	Name:        "gestisci-aiuti",
	Description: "Crea ed elimina gli aiuti (admin)",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "crea",
			Description: "Crea un aiuto con i livelli minore, medio e maggiore",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "nome",
					Description: "Nome dell'aiuto",
					Required:    true,
				},
				discord.ApplicationCommandOptionString{
					Name:        "attributo",
					Description: "Attributo richiesto",
					Required:    true,
				},
				discord.ApplicationCommandOptionString{
					Name:        "data",
					Description: "Data dell'evento (AAAA-MM-GG)",
					Required:    true,
				},
				discord.ApplicationCommandOptionString{
					Name:        "inizio",
					Description: "Ora di inizio (HH:MM)",
					Required:    true,
				},
				discord.ApplicationCommandOptionString{
					Name:        "fine",
					Description: "Ora di fine (HH:MM)",
					Required:    true,
				},
				discord.ApplicationCommandOptionString{
					Name:        "data-fine",
					Description: "Ultimo giorno, per aiuti su più giorni (AAAA-MM-GG)",
					Required:    false,
				},
				discord.ApplicationCommandOptionString{
					Name:        "minore",
					Description: "Testo del livello minore (2)",
					Required:    false,
				},
				discord.ApplicationCommandOptionString{
					Name:        "medio",
					Description: "Testo del livello medio (4)",
					Required:    false,
				},
				discord.ApplicationCommandOptionString{
					Name:        "maggiore",
					Description: "Testo del livello maggiore (5)",
					Required:    false,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "elimina",
			Description: "Elimina un aiuto (gli usi restano nello storico)",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:         "aiuto",
					Description:  "L'aiuto",
					Required:     true,
					Autocomplete: true,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "elenco",
			Description: "Elenca tutti gli aiuti, anche quelli non attivi",
		},
	},
}

// levelsFromData starts from the default tiers and replaces the texts the
// admin provided.
func levelsFromData(data discord.SlashCommandInteractionData, attribute string) []models.AidLevel {
	levels := aids.DefaultLevels(attribute)
	for i := range levels {
		if text := strings.TrimSpace(data.String(levels[i].LevelName)); text != "" {
			levels[i].Text = text
		}
	}
	return levels
}

func CreateAidHandler(b *archivio.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.HandlerTimeout)
		defer cancel()

		data := e.SlashCommandInteractionData()
		attribute := data.String("attributo")
		aid, err := b.Aids.Create(ctx, aids.Input{
			Name:      data.String("nome"),
			Attribute: attribute,
			Levels:    levelsFromData(data, strings.TrimSpace(attribute)),
			EventDate: data.String("data"),
			EndDate:   data.String("data-fine"),
			StartTime: data.String("inizio"),
			EndTime:   data.String("fine"),
			CreatedBy: e.User().ID.String(),
		})
		if err != nil {
			return utils.EH.HandleServiceError(e, err)
		}
		return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf("Aiuto **%s** creato per il %s, %s-%s", aid.Name, aid.EventDate, aid.StartTime, aid.EndTime))
	}
}

func DeleteAidHandler(b *archivio.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.HandlerTimeout)
		defer cancel()

		if err := b.Aids.Delete(ctx, e.SlashCommandInteractionData().String("aiuto")); err != nil {
			return utils.EH.HandleServiceError(e, err)
		}
		return utils.EH.CreateSuccessEmbed(e, "Aiuto eliminato")
	}
}

func ListAidsHandler(b *archivio.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.HandlerTimeout)
		defer cancel()

		list, err := b.Aids.List(ctx)
		if err != nil {
			return utils.EH.HandleServiceError(e, err)
		}
		if len(list) == 0 {
			return utils.EH.CreateInfoEmbed(e, "Nessun aiuto definito")
		}
		now := time.Now()
		var sb strings.Builder
		for _, a := range list {
			mark := "▫️"
			if b.Aids.IsActive(a, now) {
				mark = "🟢"
			}
			days := a.EventDate
			if a.EndDate != "" && a.EndDate != a.EventDate {
				days += " → " + a.EndDate
			}
			sb.WriteString(fmt.Sprintf("%s **%s** · %s · %s %s-%s\n", mark, a.Name, a.Attribute, days, a.StartTime, a.EndTime))
		}
		return utils.EH.CreateInfoEmbed(e, utils.Truncate(sb.String(), 4000))
	}
}

// AidAutocomplete lists every aid, active or not.
func AidAutocomplete(b *archivio.Bot) handler.AutocompleteHandler {
	return func(e *handler.AutocompleteEvent) error {
		_, query := utils.Focused(e)

		ctx, cancel := context.WithTimeout(context.Background(), config.SearchTimeout)
		defer cancel()

		list, err := b.Aids.List(ctx)
		if err != nil {
			return e.AutocompleteResult(nil)
		}
		query = strings.ToLower(query)
		choices := make([]utils.Choice, 0, len(list))
		for _, a := range list {
			if query != "" && !strings.Contains(strings.ToLower(a.Name), query) {
				continue
			}
			choices = append(choices, utils.Choice{Name: fmt.Sprintf("%s (%s)", a.Name, a.EventDate), Value: a.ID})
		}
		return e.AutocompleteResult(utils.AutocompleteChoices(choices))
	}
}

var ManageItems = discord.SlashCommandCreate{
	Name:        "gestisci-oggetti",
	Description: "Crea ed elimina gli oggetti acquistabili con le RISORSE (admin)",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "crea",
			Description: "Crea un oggetto",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "nome",
					Description: "Nome dell'oggetto",
					Required:    true,
				},
				discord.ApplicationCommandOptionInt{
					Name:        "costo",
					Description: "Costo in RISORSE",
					Required:    true,
					MinValue:    utils.Ptr(1),
				},
				discord.ApplicationCommandOptionString{
					Name:        "descrizione",
					Description: "Descrizione",
					Required:    false,
				},
				discord.ApplicationCommandOptionString{
					Name:        "blocco-fino",
					Description: "Le RISORSE restano impegnate fino a questa data (AAAA-MM-GG)",
					Required:    false,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "elimina",
			Description: "Elimina un oggetto (gli impegni in corso restano)",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:         "oggetto",
					Description:  "L'oggetto",
					Required:     true,
					Autocomplete: true,
				},
			},
		},
	},
}

func parseBlockUntil(raw string, loc *time.Location) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, raw, loc)
	if err != nil {
		return nil, gameerr.Validation("Data di blocco non valida, usa AAAA-MM-GG")
	}
	return &t, nil
}

func CreateItemHandler(b *archivio.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.HandlerTimeout)
		defer cancel()

		loc, err := b.Cfg.Location()
		if err != nil {
			return utils.EH.HandleServiceError(e, err)
		}
		data := e.SlashCommandInteractionData()
		blockUntil, err := parseBlockUntil(data.String("blocco-fino"), loc)
		if err != nil {
			return utils.EH.HandleServiceError(e, err)
		}
		item, err := b.Economy.CreateItem(ctx, economy.ItemInput{
			Name:          data.String("nome"),
			Description:   data.String("descrizione"),
			CostResources: data.Int("costo"),
			BlockUntil:    blockUntil,
		})
		if err != nil {
			return utils.EH.HandleServiceError(e, err)
		}
		return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf("Oggetto **%s** creato (%d RISORSE)", item.Name, item.CostResources))
	}
}

func DeleteItemHandler(b *archivio.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.HandlerTimeout)
		defer cancel()

		if err := b.Economy.DeleteItem(ctx, e.SlashCommandInteractionData().String("oggetto")); err != nil {
			return utils.EH.HandleServiceError(e, err)
		}
		return utils.EH.CreateSuccessEmbed(e, "Oggetto eliminato")
	}
}
