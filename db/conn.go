// Package db contains the database connection and migration code
package db

import (
	"cedarhill/portal-api/internal/model"
	"cedarhill/portal-api/pkg/util"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type migration struct {
	Version int
	Name    string
	Run     func(*gorm.DB) error
}

// migrations must stay in ascending version order. Append only,
// never edit an entry that has shipped.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create core tables",
		Run: func(g *gorm.DB) error {
			return g.AutoMigrate(model.User{}, model.File{}, model.AuditLog{})
		},
	},
}

func New() (*gorm.DB, error) {
	var (
		conn *gorm.DB
		err  error
	)

	// TranslateError turns driver specific unique violations into
	// gorm.ErrDuplicatedKey, which the registration path relies on
	cfg := &gorm.Config{TranslateError: true}

	switch viper.GetString("db.driver") {
	case "postgres":
		conn, err = gorm.Open(postgres.Open(viper.GetString("db.dsn")), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres, %w", err)
		}
	default:
		path := viper.GetString("db.path")

		// If running in a docker container don't allow the sqlite file to be created.
		// The host should instead mount it using volumes
		if util.IsRunningInDocker() {
			if _, err := os.Stat(path); os.IsNotExist(err) {
				return nil, fmt.Errorf("SQLite database file not mounted, please use docker volumes to mount it to /app/%s", path)
			}
		}

		conn, err = gorm.Open(sqlite.Open(fmt.Sprintf("%s?_busy_timeout=5000&_foreign_keys=on", path)), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite database, %w", err)
		}
	}

	if err := Migrate(conn); err != nil {
		return nil, err
	}

	return conn, nil
}

// Migrate brings the schema up to date by running every migration
// that hasn't been recorded in the migrations table yet.
func Migrate(g *gorm.DB) error {
	if err := g.AutoMigrate(model.Migration{}); err != nil {
		return fmt.Errorf("failed to prepare migrations table, %w", err)
	}

	var applied []model.Migration
	if err := g.Order("version").Find(&applied).Error; err != nil {
		return fmt.Errorf("failed to read applied migrations, %w", err)
	}

	done := make(map[int]bool, len(applied))
	for _, m := range applied {
		done[m.Version] = true
	}

	for _, m := range migrations {
		if done[m.Version] {
			continue
		}

		if err := m.Run(g); err != nil {
			return fmt.Errorf("migration %d (%s) failed, %w", m.Version, m.Name, err)
		}

		rec := model.Migration{Version: m.Version, Name: m.Name}
		if err := g.Create(&rec).Error; err != nil {
			return fmt.Errorf("failed to record migration %d, %w", m.Version, err)
		}

		zap.L().Info("Applied migration",
			zap.Int("version", m.Version),
			zap.String("name", m.Name),
		)
	}

	return nil
}
