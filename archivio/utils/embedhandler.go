package utils

import (
	"log/slog"

	"github.com/archivio-maledetto/archivio/archivio/config"
	"github.com/archivio-maledetto/archivio/archivio/gameerr"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

// ResponseHandler provides standardized response methods for commands and components
type ResponseHandler struct{}

var EH = &ResponseHandler{}

// ErrorType represents different categories of errors for consistent handling
type ErrorType int

const (
	// UserError - input issues and validation failures
	UserError ErrorType = iota
	// SystemError - database failures and other internal errors
	SystemError
	// NotFoundError - requested resources don't exist
	NotFoundError
	// PermissionError - unauthorized actions
	PermissionError
	// BusinessLogicError - quota, windows, already used, insufficient resources
	BusinessLogicError
)

func getErrorPrefix(errorType ErrorType) string {
	switch errorType {
	case UserError:
		return "⚠️"
	case SystemError:
		return "🔧"
	case NotFoundError:
		return "🔍"
	case PermissionError:
		return "🚫"
	case BusinessLogicError:
		return "⏳"
	default:
		return "❌"
	}
}

func getErrorColor(errorType ErrorType) int {
	switch errorType {
	case UserError, BusinessLogicError:
		return config.WarningColor
	case NotFoundError:
		return config.InfoColor
	default:
		return config.ErrorColor
	}
}

// ClassifyError maps a service error onto a response category.
func ClassifyError(err error) ErrorType {
	switch gameerr.KindOf(err) {
	case gameerr.KindValidation, gameerr.KindInvalidIndex, gameerr.KindAttributeTooLow:
		return UserError
	case gameerr.KindNotFound:
		return NotFoundError
	case gameerr.KindForbidden:
		return PermissionError
	case gameerr.KindQuotaExceeded, gameerr.KindWindowClosed, gameerr.KindAlreadyUsed,
		gameerr.KindAlreadyAttempted, gameerr.KindInsufficientResources:
		return BusinessLogicError
	default:
		return SystemError
	}
}

// ErrorEmbed renders err the way players see it. Infrastructure details
// never reach the embed.
func ErrorEmbed(err error) discord.Embed {
	errorType := ClassifyError(err)
	return discord.Embed{
		Description: getErrorPrefix(errorType) + " " + gameerr.PlayerMessage(err),
		Color:       getErrorColor(errorType),
	}
}

// HandleServiceError replies ephemerally with the player-facing message for
// err. System errors are logged with their cause.
func (h *ResponseHandler) HandleServiceError(event *handler.CommandEvent, err error) error {
	if !gameerr.IsGameError(err) {
		slog.Error("Command service error",
			slog.String("type", "error"),
			slog.String("command", event.Data.CommandName()),
			slog.Any("error", err))
	}
	return event.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{ErrorEmbed(err)},
		Flags:  discord.MessageFlagEphemeral,
	})
}

// UpdateWithServiceError is HandleServiceError for deferred responses.
func (h *ResponseHandler) UpdateWithServiceError(event *handler.CommandEvent, err error) error {
	if !gameerr.IsGameError(err) {
		slog.Error("Command service error",
			slog.String("type", "error"),
			slog.String("command", event.Data.CommandName()),
			slog.Any("error", err))
	}
	_, uerr := event.UpdateInteractionResponse(discord.MessageUpdate{
		Embeds: &[]discord.Embed{ErrorEmbed(err)},
	})
	return uerr
}

// CreateErrorEmbed creates a standard error embed for command events
func (h *ResponseHandler) CreateErrorEmbed(event *handler.CommandEvent, message string) error {
	return event.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Description: message,
			Color:       config.ErrorColor,
		}},
		Flags: discord.MessageFlagEphemeral,
	})
}

// CreateSuccessEmbed creates a standard success embed for command events
func (h *ResponseHandler) CreateSuccessEmbed(event *handler.CommandEvent, message string) error {
	return event.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Description: message,
			Color:       config.SuccessColor,
		}},
	})
}

// CreateInfoEmbed creates a standard info embed for command events
func (h *ResponseHandler) CreateInfoEmbed(event *handler.CommandEvent, message string) error {
	return event.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Description: message,
			Color:       config.InfoColor,
		}},
	})
}

// CreatePermissionError creates an error response for unauthorized actions
func (h *ResponseHandler) CreatePermissionError(event *handler.CommandEvent) error {
	return event.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Description: getErrorPrefix(PermissionError) + " " + gameerr.ErrForbidden.Message,
			Color:       getErrorColor(PermissionError),
		}},
		Flags: discord.MessageFlagEphemeral,
	})
}
