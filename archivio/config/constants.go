package config

import "time"

// UI and Display Constants
const (
	// Pagination
	HistoryPerPage    = 5
	ChallengesPerPage = 8
	DefaultPageSize   = 10
	MaxPageSize       = 25

	// Colors
	ErrorColor   = 0xFF0000
	SuccessColor = 0x00FF00
	InfoColor    = 0x0099FF
	WarningColor = 0xFFAA00

	EmbedDefaultColor = 0x2B2D31
	OracleColor       = 0x6A0DAD
	ChallengeColor    = 0xB22222

	// Aid level colors
	AidMinoreColor   = 0x808080
	AidMedioColor    = 0x0000FF
	AidMaggioreColor = 0xFFD700
)

// Database and Performance Constants
const (
	// Timeouts
	DefaultQueryTimeout     = 30 * time.Second
	SearchTimeout           = 10 * time.Second
	CommandExecutionTimeout = 10 * time.Second
	AdminCheckTimeout       = 2 * time.Second
	// HandlerTimeout bounds a wrapped command's own work. With the admin
	// check in front it still expires before CommandExecutionTimeout, so a
	// handler never commits after the wrapper has reported a timeout.
	HandlerTimeout       = CommandExecutionTimeout - AdminCheckTimeout - time.Second
	StatusQueryTimeout   = HandlerTimeout
	OracleTimeout        = 20 * time.Second
	OracleHandlerTimeout = OracleTimeout + HandlerTimeout
	OracleCommandTimeout = OracleHandlerTimeout + time.Second
	MigrationTimeout     = 30 * time.Minute

	// Cache settings
	CacheSize = 512

	// Batch processing
	DefaultBatchSize     = 50
	MaxConcurrentBatches = 5
)

// Game Mechanics Constants
const (
	// Monthly action quota
	DefaultMaxActions = 20

	// Background attribute ranges
	MinAttribute = 1
	MaxAttribute = 5
	MaxRefuge    = 50

	// Challenge scales
	MinChallengeValue = 0
	MaxChallengeValue = 20

	// Aid levels
	AidLevelCount = 3

	// History
	DefaultHistoryLimit = 100
	MaxChatQuestion     = 1500
)

// Search and Filter Constants
const (
	MaxSearchResults     = 25
	MaxAutocompleteItems = 25
)

// Logging Constants
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)
