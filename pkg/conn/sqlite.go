package conn

import (
	"net/url"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	defaultBusyTimeoutMillis = "5000"
	defaultJournalMode       = "WAL"
	defaultPoolSize          = 4
)

// Option defines connection options for an embedded SQLite database file.
type Option struct {
	Path        string
	PoolSize    int
	BusyTimeout string
	JournalMode string
	Params      map[string]string
	Config      *gorm.Config
}

// Client wraps one database file's connection pool.
type Client struct {
	opt Option
	db  *gorm.DB
}

// New opens a SQLite client for the given file, creating parent
// directories as needed. A structurally broken file fails here rather
// than on the first query: the open forces a header read.
func New(option Option) (*Client, error) {
	if err := os.MkdirAll(filepath.Dir(option.Path), 0o755); err != nil {
		return nil, err
	}

	config := option.Config
	if config == nil {
		config = &gorm.Config{}
	}

	db, err := gorm.Open(sqlite.Open(option.dsn()), config)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	poolSize := option.PoolSize
	if poolSize <= 0 {
		poolSize = defaultPoolSize
	}
	sqlDB.SetMaxOpenConns(poolSize)
	sqlDB.SetMaxIdleConns(poolSize)

	if err := db.Exec("SELECT count(*) FROM sqlite_master").Error; err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	return &Client{opt: option, db: db}, nil
}

// DB returns the underlying gorm.DB instance.
func (c *Client) DB() *gorm.DB {
	if c == nil {
		return nil
	}
	return c.db
}

// Close closes the underlying connection pool.
func (c *Client) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (opt Option) dsn() string {
	busyTimeout := opt.BusyTimeout
	if busyTimeout == "" {
		busyTimeout = defaultBusyTimeoutMillis
	}

	journalMode := opt.JournalMode
	if journalMode == "" {
		journalMode = defaultJournalMode
	}

	query := url.Values{}
	query.Set("_busy_timeout", busyTimeout)
	query.Set("_journal_mode", journalMode)
	for key, value := range opt.Params {
		if key == "" {
			continue
		}
		query.Set(key, value)
	}

	return "file:" + opt.Path + "?" + query.Encode()
}
