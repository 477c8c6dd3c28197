package db

import (
	"context"

	"github.com/dailyyoga/jsonify/logger"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type defaultDatabase struct {
	logger logger.Logger
	db     *gorm.DB
}

// NewMySQL connects to a MySQL server
func NewMySQL(log logger.Logger, cfg *Config) (Database, error) {
	if log == nil {
		log = logger.Nop()
	}
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		// merge default values for empty fields
		cfg = cfg.MergeDefaults()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dd, err := Open(log, mysql.Open(cfg.DSN()), cfg)
	if err != nil {
		return nil, err
	}

	log.Info("database connection established",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database),
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.MaxIdleConns),
		zap.Duration("conn_max_lifetime", cfg.ConnMaxLifetime),
		zap.Duration("conn_max_idle_time", cfg.ConnMaxIdleTime),
	)
	return dd, nil
}

// Open opens any gorm dialector with the pool and logging settings of cfg
// and checks the connection
func Open(log logger.Logger, dialector gorm.Dialector, cfg *Config) (Database, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg = cfg.MergeDefaults()
	}
	if err := cfg.validatePool(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   newGormLogger(log, cfg.GormLogLevel(), cfg.SlowThreshold),
		PrepareStmt:                              true,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, ErrConnection(err)
	}
	sqldb, err := gdb.DB()
	if err != nil {
		return nil, ErrConnection(err)
	}

	// set connection pool settings
	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqldb.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// test connection
	if err := sqldb.Ping(); err != nil {
		_ = sqldb.Close()
		return nil, ErrConnection(err)
	}

	return &defaultDatabase{logger: log, db: gdb}, nil
}

func (dd *defaultDatabase) DB() (*gorm.DB, error) {
	if dd.db == nil {
		return nil, ErrConnectionNotEstablished
	}
	return dd.db, nil
}

func (dd *defaultDatabase) Ping(ctx context.Context) error {
	sqldb, err := dd.db.DB()
	if err != nil {
		return ErrConnection(err)
	}
	if err := sqldb.PingContext(ctx); err != nil {
		return ErrConnection(err)
	}
	return nil
}

func (dd *defaultDatabase) Close() error {
	sqldb, err := dd.db.DB()
	if err != nil {
		return ErrConnection(err)
	}
	return sqldb.Close()
}
