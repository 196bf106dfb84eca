package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/atlasworks/projectfeed/internal/config"
	"github.com/atlasworks/projectfeed/internal/db"
	"github.com/atlasworks/projectfeed/internal/model"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	gdb, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}

	if err := gdb.AutoMigrate(
		&model.Message{},
		&model.MessageRead{},
		&model.TaskActivity{},
		&model.UserSession{},
		&model.User{},
		&model.Employee{},
		&model.SalesRepresentative{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	var count int64
	if err := gdb.Model(&model.Message{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count messages: %w", err)
	}
	if count > 0 && os.Getenv("FORCE_SEED") != "true" {
		log.Printf("messages already exist; skipping seed (set FORCE_SEED=true to override)")
		return nil
	}

	return gdb.Transaction(func(tx *gorm.DB) error {
		employees := []model.Employee{
			{Name: "Mika Tanaka"},
			{Name: "Leo Carvalho"},
		}
		if err := tx.Create(&employees).Error; err != nil {
			return fmt.Errorf("seed employees: %w", err)
		}
		users := []model.User{
			{Name: "Harper Quinn"},
		}
		if err := tx.Create(&users).Error; err != nil {
			return fmt.Errorf("seed users: %w", err)
		}

		now := time.Now()
		bodies := []struct {
			author model.Actor
			text   string
			offset time.Duration
		}{
			{model.Actor{Kind: model.ActorEmployee, ID: employees[0].ID}, "Kickoff notes are up, please review before Friday.", -3 * time.Hour},
			{model.Actor{Kind: model.ActorUser, ID: users[0].ID}, "Reviewed, the scope looks right to me.", -2 * time.Hour},
			{model.Actor{Kind: model.ActorEmployee, ID: employees[1].ID}, "I will draft the invoice schedule today.", -time.Hour},
		}
		for _, b := range bodies {
			text := b.text
			msg := model.Message{
				ProjectID:  1,
				AuthorType: b.author.Kind,
				AuthorID:   b.author.ID,
				Body:       &text,
				CreatedAt:  now.Add(b.offset),
			}
			if err := tx.Create(&msg).Error; err != nil {
				return fmt.Errorf("seed message: %w", err)
			}
		}

		comment := "Uploaded the signed contract, link below: https://example.com/contracts/42"
		activity := model.TaskActivity{
			ProjectTaskID: 1,
			ActorType:     model.ActorEmployee,
			ActorID:       employees[0].ID,
			Type:          model.ActivityComment,
			Body:          &comment,
		}
		if err := tx.Create(&activity).Error; err != nil {
			return fmt.Errorf("seed activity: %w", err)
		}

		log.Printf("seeded %d messages and 1 task activity", len(bodies))
		return nil
	})
}
