package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ssafy/baperang/backend/pkg/config"
	"github.com/ssafy/baperang/backend/pkg/database"
	"github.com/ssafy/baperang/backend/pkg/logger"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "데이터베이스 스키마 적용",
	Long: `meal 스키마의 테이블과 인덱스를 생성합니다.
모든 문장은 IF NOT EXISTS로 작성되어 여러 번 실행해도 안전합니다.

Example:
  go run ./cmd/baperang migrate`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.StorageDriver != config.StoragePostgres {
		return fmt.Errorf("migrate needs STORAGE_DRIVER=postgres (got %s)", cfg.StorageDriver)
	}

	log := logger.New(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	start := time.Now()
	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"statements": database.MigrationCount(),
		"duration":   time.Since(start),
	}).Info("Schema migrated")
	PrintSuccess(fmt.Sprintf("Applied %d statements", database.MigrationCount()))
	return nil
}
