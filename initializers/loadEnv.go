package initializers

import (
	"log"

	"github.com/joho/godotenv"
)

// LoadEnv loads .env into the process environment. A missing file is fine;
// deployed environments inject variables directly.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}
}
