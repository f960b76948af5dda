package main

import (
	"log"
	"time"

	"github.com/labstack/echo/v4"

	"watersync/config"
	"watersync/database"
	"watersync/router"
)

func main() {
	// 1) Config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if loc, err := time.LoadLocation(cfg.Timezone); err != nil {
		log.Printf("[cfg] unknown timezone %q, using UTC: %v", cfg.Timezone, err)
	} else {
		time.Local = loc
	}

	// 2) DB + migrations
	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	// 3) Echo
	e := echo.New()
	e.HideBanner = true
	if _, err := router.Setup(e, db, cfg); err != nil {
		log.Fatalf("router: %v", err)
	}

	// 4) Start
	log.Printf("listening on :%s", cfg.Port)
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
