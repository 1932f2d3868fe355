package feedback

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// MySQLStore persists feedback in a MySQL table
type MySQLStore struct {
	sqlStore
}

// NewMySQLStore connects to dsn and creates the feedback table if missing
func NewMySQLStore(dsn string, logger *zap.Logger) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS feedback (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			message MEDIUMTEXT NOT NULL,
			prediction VARCHAR(16) NOT NULL,
			judgment VARCHAR(16) NOT NULL,
			terms TEXT NOT NULL,
			reason TEXT NOT NULL,
			created_at BIGINT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	logger.Info("Connected to MySQL feedback store")
	return &MySQLStore{sqlStore{db: db, logger: logger, name: "MySQL"}}, nil
}
