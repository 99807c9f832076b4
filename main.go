package main

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/apigee-127/a127/cmd"
)

func main() {
	// A ~/.a127/.env lets users keep A127_ settings out of their shell rc.
	if home, err := os.UserHomeDir(); err == nil {
		_ = godotenv.Load(filepath.Join(home, ".a127", ".env"))
	}
	cmd.Execute()
}
