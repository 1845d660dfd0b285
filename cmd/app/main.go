package main

import (
	"flag"
	"log"
	"os"

	"PriceBoard/internal/di"
	"PriceBoard/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	checkOnly := flag.Bool("check", false, "validate the config and exit")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("load config %s: %v", *configPath, err)
	}
	if *checkOnly {
		log.Printf("config %s ok", *configPath)
		return
	}

	log.Printf("starting priceboard env=%s upstream=%s cache=%s archive=%s",
		cfg.Environment, cfg.Upstream.BaseURL, cfg.Cache.Type, cfg.Archive.Backend)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("init: %v", err)
	}
	if err := app.Run(); err != nil {
		log.Printf("priceboard stopped with error: %v", err)
		os.Exit(1)
	}
}
