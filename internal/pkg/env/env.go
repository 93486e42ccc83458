package env

import (
	"os"

	"github.com/gofiber/fiber/v2/log"
	"github.com/joho/godotenv"
)

// SetupEnvFile loads the first .env file found into the process environment.
// Variables already set in the environment win. A missing file is not an
// error; containers usually inject everything directly.
func SetupEnvFile() {
	envFiles := []string{
		".env",          // Current directory
		"../../.env",    // From cmd/complytrack to project root
		"../../../.env", // Fallback for deeper nesting
	}

	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err != nil {
			continue
		}
		if err := godotenv.Load(envFile); err != nil {
			log.Warnf("Could not read %s: %v", envFile, err)
			continue
		}
		return
	}
	log.Info("No .env file found, using process environment")
}

func GetEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}
