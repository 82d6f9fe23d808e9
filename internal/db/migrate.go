package db

import (
	"context"
	"database/sql"
	"sync"

	"github.com/pressly/goose/v3"

	"github.com/Spok95/task-score-service/internal/db/migrations"
)

// goose хранит настройки глобально
var gooseMu sync.Mutex

// Migrate накатывает встроенные миграции.
func Migrate(ctx context.Context, database *sql.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, database, ".")
}
