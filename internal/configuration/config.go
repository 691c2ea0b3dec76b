package configuration

import (
	"os"
	"path/filepath"
	"strings"

	"authweb/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

func parseArrayFields(k *koanf.Koanf) {
	for _, field := range ArrayConfigFields {
		if stringVal := k.String(field); stringVal != "" {
			stringVal = strings.Trim(stringVal, "[]")
			var items []string
			if strings.Contains(stringVal, ",") {
				items = strings.Split(stringVal, ",")
			} else {
				items = strings.Fields(stringVal)
			}
			for i, item := range items {
				items[i] = strings.TrimSpace(item)
			}
			err := k.Set(field, items)
			if err != nil {
				zap.L().
					Error("Error parsing array field", zap.String("field", field), zap.Error(err))
			}
		}
	}
}

func readEnvVars(k *koanf.Koanf) {
	err := k.Load(env.Provider("", ".", func(s string) string {
		s = strings.ToLower(s)
		segments := strings.Split(s, "__")
		return strings.Join(segments, ".")
	}), nil)
	if err != nil {
		zap.L().Warn("Error loading environment variables", zap.Error(err))
	}

	parseArrayFields(k)
}

func readFileConfig(k *koanf.Koanf) {
	configFilePath := os.Getenv("CONFIG_FILE_PATH")
	var filePath string
	if configFilePath == "" {
		for _, path := range ConfigFileSearchPaths {
			if _, err := os.Stat(path); err == nil {
				filePath = path
				break
			}
		}
	} else {
		filePath = configFilePath
	}

	if filePath != "" {
		err := k.Load(file.Provider(filePath), yaml.Parser())
		if err != nil {
			zap.L().
				Fatal("Fatal error loading config file", zap.String("path", filePath), zap.Error(err))
		}
		zap.L().Info("Read configuration from file " + filePath)
	} else {
		zap.L().Warn("No configuration file found")
	}
}

func loadDefaults(k *koanf.Koanf) {
	defaults := map[string]interface{}{
		"app.log_level":       "info",
		"app.port":            8420,
		"app.allowed_origins": []string{"http://localhost:8420"},

		"api.timeout_seconds": 10,

		"session.file": defaultSessionFile(),
	}

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		zap.L().Fatal("Failed to load default configuration", zap.Error(err))
	}
}

// defaultSessionFile places the persisted session under the user's home
// directory, falling back to the working directory when home is unknown.
func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + AppName + "-session.json"
	}
	return filepath.Join(home, "."+AppName, "session.json")
}

func Read() models.Configuration {
	k := koanf.New(".")

	loadDefaults(k)
	readFileConfig(k)
	readEnvVars(k)

	var config models.Configuration
	err := k.UnmarshalWithConf("", &config, koanf.UnmarshalConf{Tag: "mapstructure"})
	if err != nil {
		zap.L().Fatal("Unable to decode config into struct", zap.Error(err))
	}

	validate := validator.New()
	if err = validate.Struct(config); err != nil {
		zap.L().Fatal("Invalid configuration", zap.Error(err))
	}

	return config
}
