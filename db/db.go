package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/padraicbc/f1picks/config"
	"github.com/padraicbc/f1picks/models"
)

// Setup opens a PostgreSQL connection using the provided config.
func Setup(cfg *config.Config) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.PostgresDSN())))
	db := bun.NewDB(sqldb, pgdialect.New())

	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	if err := db.PingContext(context.Background()); err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	return db
}

// Models lists every table in dependency order.
func Models() []interface{} {
	return []interface{}{
		(*models.User)(nil),
		(*models.Team)(nil),
		(*models.Driver)(nil),
		(*models.DriverSeason)(nil),
		(*models.Race)(nil),
		(*models.RaceResult)(nil),
		(*models.Group)(nil),
		(*models.GroupMember)(nil),
		(*models.Prediction)(nil),
		(*models.Score)(nil),
	}
}

// CreateTables creates all tables in dependency order.
func CreateTables(ctx context.Context, db *bun.DB) error {
	for _, model := range Models() {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("creating table for %T: %w", model, err)
		}
	}

	indexes := []struct {
		model   interface{}
		name    string
		columns []string
	}{
		{(*models.RaceResult)(nil), "race_results_race_idx", []string{"race_id"}},
		{(*models.Prediction)(nil), "predictions_race_idx", []string{"race_id"}},
		{(*models.Score)(nil), "scores_group_idx", []string{"group_id"}},
		{(*models.Race)(nil), "races_season_idx", []string{"season", "scheduled_at"}},
	}
	for _, ix := range indexes {
		_, err := db.NewCreateIndex().Model(ix.model).Index(ix.name).Column(ix.columns...).IfNotExists().Exec(ctx)
		if err != nil {
			return fmt.Errorf("creating index %s: %w", ix.name, err)
		}
	}

	return nil
}
