package bobawatch

import (
	"github.com/hazyhaar/menuwatch/bobawatch/availability"
	"github.com/hazyhaar/menuwatch/bobawatch/internal/config"
	"github.com/hazyhaar/menuwatch/bobawatch/internal/inspect"
)

// Config is the runtime configuration, parsed from the environment.
type Config = config.Config

// LoadConfig parses and validates the process environment.
func LoadConfig() (*Config, error) { return config.Load() }

// LoadConfigFrom parses vars instead of the process environment.
func LoadConfigFrom(vars map[string]string) (*Config, error) { return config.LoadFrom(vars) }

// InspectFile derives the verdict from a saved page dump without a browser.
// Nothing is sent and no state changes.
func InspectFile(path, optionText string) (availability.Result, error) {
	return inspect.File(path, optionText)
}
