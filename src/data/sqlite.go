package data

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// sqliteConnOpts enables WAL and foreign keys and waits on a locked file
// instead of failing right away.
const sqliteConnOpts = "_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// ConnectSQLite opens (creating if needed) the SQLite file at path.
func ConnectSQLite(path string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?%s", path, sqliteConnOpts)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormLogger()})
	if err != nil {
		return nil, err
	}
	// One writer at a time keeps transactions on the file serialised.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}
