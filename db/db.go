package db

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/cs4432/simpledb/buffer"
	"github.com/cs4432/simpledb/file"
	"github.com/cs4432/simpledb/log"
	"github.com/cs4432/simpledb/tx"
	"github.com/google/uuid"
)

const (
	defaultPath      = "data"
	defaultLogFile   = "simpledb.log"
	blockSize        = 400
	buffersAvailable = 8
)

// Config holds the settings of a database instance.
// Zero values are replaced by the defaults of DefaultConfig.
type Config struct {
	Dir         string
	BlockSize   int
	BufferCount int
	Policy      buffer.Policy
	LogFile     string
	Logger      *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		Dir:         defaultPath,
		BlockSize:   blockSize,
		BufferCount: buffersAvailable,
		Policy:      buffer.PolicyBasic,
		LogFile:     defaultLogFile,
		Logger:      slog.New(slog.NewTextHandler(os.Stderr, nil)),
	}
}

func (conf Config) withDefaults() Config {
	def := DefaultConfig()
	if conf.Dir == "" {
		conf.Dir = def.Dir
	}
	if conf.BlockSize == 0 {
		conf.BlockSize = def.BlockSize
	}
	if conf.BufferCount == 0 {
		conf.BufferCount = def.BufferCount
	}
	if conf.LogFile == "" {
		conf.LogFile = def.LogFile
	}
	if conf.Logger == nil {
		conf.Logger = def.Logger
	}

	return conf
}

// DB wires together the managers of a database instance.
type DB struct {
	id     string
	fm     *file.FileManager
	lm     *log.Manager
	bm     *buffer.BufferManager
	logger *slog.Logger
}

// Open opens the database in conf.Dir, creating it if needed.
// An existing database is recovered before Open returns.
func Open(conf Config) (*DB, error) {
	conf = conf.withDefaults()

	id := uuid.NewString()
	logger := conf.Logger.With(slog.String("db", id))

	fm, err := file.NewFileManager(conf.Dir, conf.BlockSize)
	if err != nil {
		return nil, err
	}

	lm, err := log.NewLogManager(fm, conf.LogFile)
	if err != nil {
		fm.Close()
		return nil, err
	}

	bm := buffer.NewBufferManager(fm, lm, conf.BufferCount,
		buffer.WithPolicy(conf.Policy),
		buffer.WithObserver(buffer.NewLogObserver(logger)),
	)

	db := &DB{
		id:     id,
		fm:     fm,
		lm:     lm,
		bm:     bm,
		logger: logger,
	}

	if err := db.startup(); err != nil {
		fm.Close()
		return nil, err
	}

	return db, nil
}

func (db *DB) startup() error {
	x, err := db.NewTx()
	if err != nil {
		return err
	}

	attrs := []any{
		slog.String("dir", db.fm.Folder()),
		slog.Int("buffers", db.bm.Size()),
		slog.String("policy", db.bm.Policy().String()),
	}

	if db.fm.IsNew() {
		db.logger.Info("initialising new database", attrs...)
	} else {
		db.logger.Info("recovering existing database", attrs...)
		if err := x.Recover(); err != nil {
			return fmt.Errorf("recover database: %w", err)
		}
	}

	return x.Commit()
}

// ID identifies the database instance in the logs.
func (db *DB) ID() string {
	return db.id
}

func (db *DB) NewTx() (tx.Transaction, error) {
	return tx.NewTx(db.fm, db.lm, db.bm)
}

func (db *DB) BufferManager() *buffer.BufferManager {
	return db.bm
}

// Close closes the database files.
// Pending transactions are not committed, and are rolled back by the next Open.
func (db *DB) Close() error {
	stats := db.bm.Stats()
	db.logger.Info("closing database",
		slog.Int("hits", stats.Hits),
		slog.Int("misses", stats.Misses),
		slog.Int("evictions", stats.Evictions),
	)

	return db.fm.Close()
}
