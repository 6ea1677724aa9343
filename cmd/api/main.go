package main

import (
	"log"

	"github.com/Egham-7/headshot-studio/internal/config"
	pkgconfig "github.com/Egham-7/headshot-studio/pkg/config"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

func main() {
	// Load environment files explicitly
	envFiles := []string{".env.local", ".env.development", ".env"}
	config.LoadEnvFiles(envFiles)

	// Load configuration from YAML
	cfg, err := config.LoadFromFile("config.yaml")
	if err != nil {
		fiberlog.Fatalf("Failed to load config: %v", err)
	}

	app := pkgconfig.NewApp(cfg)

	log.Println("Starting Headshot Studio server...")
	if err := app.Run(); err != nil {
		fiberlog.Fatalf("Server failed: %v", err)
	}
}
