package configuration

import (
	"os"
	"strings"

	"mediahub/infrastructure/logger"

	"github.com/spf13/viper"
)

// LoadEnvFiles copies the KEY=VALUE pairs of dotenv files such as config.env
// into the process environment so Reload can see DB_VENDOR, SECRET_KEY and the
// platform credentials. Variables already set win, so the first file listed
// takes precedence over later ones. Missing files are skipped.
func LoadEnvFiles(paths ...string) int {
	applied := 0
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		v := viper.New()
		v.SetConfigFile(p)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			logger.GetLogger().WithField("file", p).WithField("error", err).Warn("Unable to read env file")
			continue
		}
		n := 0
		for _, key := range v.AllKeys() {
			// viper lowercases keys
			name := strings.ToUpper(key)
			if _, exists := os.LookupEnv(name); exists {
				continue
			}
			if err := os.Setenv(name, v.GetString(key)); err != nil {
				logger.GetLogger().WithField("key", name).WithField("error", err).Warn("Unable to export env key")
				continue
			}
			n++
		}
		logger.GetLogger().WithField("file", p).WithField("keys", n).Info("Env file loaded")
		applied += n
	}
	return applied
}
