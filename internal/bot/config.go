package bot

// BotConfig holds defaults for commands whose arguments are optional
type BotConfig struct {
	// Days used by /recover when the backlog gives no suggestion
	DefaultRecoveryDays int
	// Most item ids accepted in one /move or /spread
	MaxItemsPerCommand int
	// Session length recorded by a bare /studied, in minutes
	DefaultSessionMinutes int
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		DefaultRecoveryDays:   7,
		MaxItemsPerCommand:    200,
		DefaultSessionMinutes: 20,
	}
}
