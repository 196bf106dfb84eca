package main

import (
	"log"
	"os"

	"github.com/atlasworks/projectfeed/internal/config"
	"github.com/atlasworks/projectfeed/internal/db"
	"github.com/atlasworks/projectfeed/internal/model"
	"github.com/atlasworks/projectfeed/internal/server"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, cfgErr := config.Load()
	if cfgErr != nil {
		log.Printf("config load error: %v", cfgErr)
	}

	srv := server.New(nil, cfg, os.Getenv("GIT_SHA"), os.Getenv("BUILD_TIME"))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	addr := ":" + port

	errCh := make(chan error, 1)

	go func() {
		log.Printf("starting server on %s", addr)
		errCh <- srv.Start(addr)
	}()

	// Attach the database once it is reachable so the server can come up
	// before Cloud SQL does.
	go func() {
		if cfgErr != nil {
			return
		}
		conn, err := db.Connect(cfg)
		if err != nil {
			log.Printf("db connect error: %v", err)
			return
		}
		srv.SetDB(conn)
		if err := conn.AutoMigrate(
			&model.Message{},
			&model.MessageRead{},
			&model.TaskActivity{},
			&model.UserSession{},
			&model.User{},
			&model.Employee{},
			&model.SalesRepresentative{},
		); err != nil {
			log.Printf("auto migrate error: %v", err)
		}
	}()

	if err := <-errCh; err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
