package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	errs "fuzzysheets/internal/errors"
	"fuzzysheets/internal/models"
)

// DataSourceConfig holds connection details
type DataSourceConfig struct {
	Type     string `json:"type"` // "postgres", "mysql", "sqlite"
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"` // "disable", "require"
	Path     string `json:"path"`    // sqlite database file
}

// DataSource loads tables from a database.
type DataSource interface {
	Close() error
	ListTables(ctx context.Context) ([]string, error)
	LoadTable(ctx context.Context, tableName string, limit int) (*models.Table, error)
}

// SQLDataSource implements DataSource over database/sql.
type SQLDataSource struct {
	db      *sql.DB
	dialect string
	name    string
}

// Connect opens and pings the database described by config.
func Connect(ctx context.Context, config DataSourceConfig) (*SQLDataSource, error) {
	driver, dsn, err := dataSourceName(config)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errs.NewDB("service.Connect", "open "+config.Type, err)
	}
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errs.NewDB("service.Connect", "ping "+config.Type, err)
	}

	name := config.DBName
	if config.Type == "sqlite" {
		name = config.Path
	}
	return &SQLDataSource{db: db, dialect: config.Type, name: name}, nil
}

func dataSourceName(config DataSourceConfig) (driver, dsn string, err error) {
	switch config.Type {
	case "postgres":
		sslMode := config.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			config.Host, config.Port, config.User, config.Password, config.DBName, sslMode)
		return "postgres", dsn, nil
	case "mysql":
		cfg := mysql.NewConfig()
		cfg.User = config.User
		cfg.Passwd = config.Password
		cfg.Net = "tcp"
		cfg.Addr = fmt.Sprintf("%s:%d", config.Host, config.Port)
		cfg.DBName = config.DBName
		return "mysql", cfg.FormatDSN(), nil
	case "sqlite":
		if config.Path == "" {
			return "", "", errs.NewValidation("service.Connect", "sqlite requires a path", nil)
		}
		return "sqlite", config.Path, nil
	}
	return "", "", errs.NewValidation("service.Connect",
		fmt.Sprintf("unsupported database type %q (want postgres, mysql or sqlite)", config.Type), nil)
}

// Name returns the database name or file.
func (s *SQLDataSource) Name() string {
	return s.name
}

func (s *SQLDataSource) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLDataSource) ListTables(ctx context.Context) ([]string, error) {
	var query string
	switch s.dialect {
	case "postgres":
		query = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		ORDER BY table_name;
	`
	case "mysql":
		query = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		ORDER BY table_name;
	`
	default:
		query = `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name;
	`
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errs.NewDB("service.ListTables", "query tables", err)
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, errs.NewDB("service.ListTables", "scan table name", err)
		}
		tables = append(tables, tableName)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.NewDB("service.ListTables", "iterate tables", err)
	}
	return tables, nil
}

// LoadTable reads up to limit rows of tableName (all rows when limit <= 0).
// The name must be one of ListTables. Values are stringified, NULL becomes
// the empty string.
func (s *SQLDataSource) LoadTable(ctx context.Context, tableName string, limit int) (*models.Table, error) {
	tables, err := s.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	known := false
	for _, t := range tables {
		if t == tableName {
			known = true
			break
		}
	}
	if !known {
		return nil, errs.NewValidation("service.LoadTable", fmt.Sprintf("unknown table %q", tableName), nil)
	}

	query := "SELECT * FROM " + s.quoteIdent(tableName)
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errs.NewDB("service.LoadTable", "query "+tableName, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errs.NewDB("service.LoadTable", "read columns", err)
	}

	t := &models.Table{Name: tableName, Header: columns, Rows: [][]string{}}
	for rows.Next() {
		// Prepare a slice of interface{} to hold values
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, errs.NewDB("service.LoadTable", "scan row", err)
		}

		record := make([]string, len(columns))
		for i, val := range values {
			record[i] = stringify(val)
		}
		t.Rows = append(t.Rows, record)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.NewDB("service.LoadTable", "iterate rows", err)
	}
	return t, nil
}

func (s *SQLDataSource) quoteIdent(name string) string {
	if s.dialect == "mysql" {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func stringify(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	// Handle byte slices (common for strings in DB drivers)
	case []byte:
		return string(val)
	case string:
		return val
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 {
			return val.Format("2006-01-02")
		}
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprint(val)
	}
}
