package debug

import (
	"os"
	"strconv"
)

// Config holds debug mode configuration
type Config struct {
	// Enabled is the global debug on/off switch
	Enabled bool
}

// Active is the global debug configuration
var Active Config

// Init initializes debug configuration from the EVAULT_DEBUG environment
// variable. A true value in the config file (debug: true) is applied later
// by the caller through Enable.
func Init() {
	Active = Config{
		Enabled: parseBool(os.Getenv("EVAULT_DEBUG"), false),
	}
}

// Enable switches debug mode on and installs the debug logger.
func Enable() {
	Active.Enabled = true
	InitLogger()
}

func parseBool(s string, defaultVal bool) bool {
	if s == "" {
		return defaultVal
	}
	val, err := strconv.ParseBool(s)
	if err != nil {
		return defaultVal
	}
	return val
}
