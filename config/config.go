package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

var v *viper.Viper

func init() {
	v = viper.New()

	// Set default values
	v.SetDefault("server.port", 29899)
	v.SetDefault("server.url", "")

	v.SetDefault("events.debounce_window", 500*time.Millisecond)
	v.SetDefault("events.payload_version", 1)

	v.SetDefault("hal.backend", "sim")
	v.SetDefault("hal.profile", "")
	v.SetDefault("hal.adb.serial", "")
	v.SetDefault("hal.adb.port", 5037)

	v.SetDefault("displaysettings.home", filepath.Join(xdg.ConfigHome, "displaysettings"))

	// Environment variables
	v.AutomaticEnv()
	v.BindEnv("server.port", "DISPLAYSETTINGS_PORT")
	v.BindEnv("server.url", "DISPLAYSETTINGS_URL")
	v.BindEnv("events.debounce_window", "DISPLAYSETTINGS_DEBOUNCE_WINDOW")
	v.BindEnv("events.payload_version", "DISPLAYSETTINGS_PAYLOAD_VERSION")
	v.BindEnv("hal.backend", "DISPLAYSETTINGS_BACKEND")
	v.BindEnv("hal.profile", "DISPLAYSETTINGS_PROFILE")
	v.BindEnv("hal.adb.serial", "ANDROID_SERIAL")
	v.BindEnv("hal.adb.port", "ADB_SERVER_PORT")
	v.BindEnv("displaysettings.home", "DISPLAYSETTINGS_HOME")

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Look for config in the following paths
	configPaths := []string{
		".",
		GetHome(),
		"/etc/displaysettings",
	}

	for _, path := range configPaths {
		expandedPath := os.ExpandEnv(path)
		v.AddConfigPath(expandedPath)
	}

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			panic(fmt.Sprintf("Fatal error reading config file: %s", err))
		}
	}
}

// GetHome returns the displaysettings configuration directory
func GetHome() string {
	return v.GetString("displaysettings.home")
}

// GetServerPort returns the port the server listens on
func GetServerPort() int {
	return v.GetInt("server.port")
}

// GetServerURL returns the base URL CLI commands talk to
func GetServerURL() string {
	if url := v.GetString("server.url"); url != "" {
		return url
	}
	return fmt.Sprintf("http://localhost:%d", GetServerPort())
}

// GetDebounceWindow returns the hotplug debounce window
func GetDebounceWindow() time.Duration {
	return v.GetDuration("events.debounce_window")
}

// GetPayloadVersion returns the hardware event payload layout version
func GetPayloadVersion() int {
	return v.GetInt("events.payload_version")
}

// GetBackend returns the hardware abstraction backend name ("sim" or "adb")
func GetBackend() string {
	return v.GetString("hal.backend")
}

// GetProfilePath returns the simulator device profile path.
// Empty means the built-in profile.
func GetProfilePath() string {
	return v.GetString("hal.profile")
}

// GetADBSerial returns the serial of the device driven by the adb backend
func GetADBSerial() string {
	return v.GetString("hal.adb.serial")
}

// GetADBPort returns the adb server port
func GetADBPort() int {
	return v.GetInt("hal.adb.port")
}

// Set overrides a configuration value, used for command line flags
func Set(key string, value interface{}) {
	v.Set(key, value)
}
