// cmd/adduser/main.go
// Creates or updates a user in the database.
//
// Usage:
//
//	go run ./cmd/adduser -username lando -password testing [-admin]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/padraicbc/f1picks/config"
	bundb "github.com/padraicbc/f1picks/db"
	"github.com/padraicbc/f1picks/handlers"
	"github.com/padraicbc/f1picks/models"
)

func main() {
	username := flag.String("username", "", "username (required)")
	password := flag.String("password", "", "plain-text password (required)")
	admin := flag.Bool("admin", false, "allow the user to run imports")
	flag.Parse()

	hash, err := handlers.HashPasswordForUser(*username, *password)
	if err != nil {
		log.Fatal(err)
	}

	cfg := config.LoadTools()
	db := bundb.Setup(cfg)
	defer db.Close()

	if err := bundb.CreateTables(context.Background(), db); err != nil {
		log.Fatal("create tables:", err)
	}

	user := &models.User{
		Username: *username,
		Password: hash,
		IsAdmin:  *admin,
	}

	_, err = db.NewInsert().Model(user).
		On("CONFLICT (username) DO UPDATE").
		Set("password = EXCLUDED.password").
		Set("is_admin = EXCLUDED.is_admin").
		Exec(context.Background())
	if err != nil {
		log.Fatal("insert user:", err)
	}

	fmt.Printf("user %q saved (admin=%t)\n", *username, *admin)
}
