package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/OneOfOne/xxhash"
	"github.com/stake-plus/govmeet/src/data"
	"gorm.io/gorm"
)

// Provider hands out the Store of a channel, creating its schema on first use.
type Provider interface {
	Open(ctx context.Context, channel string) (*Store, error)
	Close() error
}

// Migrate creates the meeting tables when they are missing.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// SharedProvider keeps every channel in one database, rows keyed by channel.
type SharedProvider struct {
	db      *gorm.DB
	cursors CursorStore

	once       sync.Once
	migrateErr error
}

func NewSharedProvider(db *gorm.DB, cursors CursorStore) *SharedProvider {
	if cursors == nil {
		cursors = StoreCursors{}
	}
	return &SharedProvider{db: db, cursors: cursors}
}

func (p *SharedProvider) Open(ctx context.Context, channel string) (*Store, error) {
	if strings.TrimSpace(channel) == "" {
		return nil, errors.New("store: channel is required")
	}
	p.once.Do(func() {
		p.migrateErr = Migrate(p.db)
	})
	if p.migrateErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, p.migrateErr)
	}
	return newStore(ctx, p.db, channel, p.cursors), nil
}

// Close is a no-op; the shared handle belongs to the caller.
func (p *SharedProvider) Close() error { return nil }

// FileProvider keeps one SQLite file per channel under dir.
type FileProvider struct {
	dir     string
	cursors CursorStore

	mu  sync.Mutex
	dbs map[string]*gorm.DB
}

func NewFileProvider(dir string, cursors CursorStore) (*FileProvider, error) {
	if dir == "" {
		return nil, errors.New("store: data dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}
	if cursors == nil {
		cursors = StoreCursors{}
	}
	return &FileProvider{
		dir:     dir,
		cursors: cursors,
		dbs:     make(map[string]*gorm.DB),
	}, nil
}

func (p *FileProvider) Open(ctx context.Context, channel string) (*Store, error) {
	if strings.TrimSpace(channel) == "" {
		return nil, errors.New("store: channel is required")
	}
	db, err := p.dbFor(channel)
	if err != nil {
		return nil, err
	}
	return newStore(ctx, db, channel, p.cursors), nil
}

func (p *FileProvider) dbFor(channel string) (*gorm.DB, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if db, ok := p.dbs[channel]; ok {
		return db, nil
	}

	path := filepath.Join(p.dir, ChannelFileName(channel))
	db, err := data.ConnectSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrUnavailable, path, err)
	}
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	log.Printf("store: opened %s for channel %s", path, channel)
	p.dbs[channel] = db
	return db, nil
}

// Close closes every opened channel database.
func (p *FileProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for channel, db := range p.dbs {
		if sqlDB, err := db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("store: close %s: %w", channel, err))
			}
		}
		delete(p.dbs, channel)
	}
	return errors.Join(errs...)
}

// ChannelFileName maps a channel id to a file name that is safe on disk and
// unique even when two channels sanitise to the same prefix.
func ChannelFileName(channel string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(channel) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
		if b.Len() >= 48 {
			break
		}
	}
	prefix := b.String()
	if prefix == "" {
		prefix = "channel"
	}
	return fmt.Sprintf("%s-%016x.sqlite", prefix, xxhash.Checksum64([]byte(channel)))
}
