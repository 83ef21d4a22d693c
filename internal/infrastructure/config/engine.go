package config

// EngineConfig holds the engine's player and content settings
type EngineConfig struct {
	// PlayerID selects which player's jobs and state this engine instance
	// manages. Multiple instances may run, one per player profile.
	PlayerID int `mapstructure:"player_id" validate:"min=0"`

	// CatalogPath points at the JSON definitions catalog
	CatalogPath string `mapstructure:"catalog_path"`
}
