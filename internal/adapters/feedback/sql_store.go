package feedback

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/spam-scanner/internal/core"
)

// sqlStore is the database/sql backed store shared by the SQLite and MySQL
// drivers. Terms are kept as a JSON array and timestamps as unix milliseconds.
type sqlStore struct {
	db     *sql.DB
	logger *zap.Logger
	name   string
}

func (s *sqlStore) Append(ctx context.Context, record *core.FeedbackRecord) error {
	terms := record.InfluentialTerms
	if terms == nil {
		terms = []string{}
	}
	encoded, err := json.Marshal(terms)
	if err != nil {
		return fmt.Errorf("failed to encode terms: %w", err)
	}

	var ts int64
	if !record.Timestamp.IsZero() {
		ts = record.Timestamp.UnixMilli()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO feedback (message, prediction, judgment, terms, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, record.Text, string(record.PredictedLabel), string(record.Judgment), string(encoded), record.Reason, ts)
	if err != nil {
		return fmt.Errorf("failed to insert feedback record: %w", err)
	}

	s.logger.Debug("Stored feedback record",
		zap.String("store", s.name),
		zap.String("judgment", string(record.Judgment)))
	return nil
}

func (s *sqlStore) List(ctx context.Context) ([]core.FeedbackRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT message, prediction, judgment, terms, reason, created_at
		FROM feedback
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	var records []core.FeedbackRecord
	for rows.Next() {
		var (
			r                              core.FeedbackRecord
			prediction, judgment, rawTerms string
			ts                             int64
		)
		if err := rows.Scan(&r.Text, &prediction, &judgment, &rawTerms, &r.Reason, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan feedback row: %w", err)
		}
		r.PredictedLabel = core.Label(prediction)
		r.Judgment = core.Judgment(judgment)
		if rawTerms != "" {
			if err := json.Unmarshal([]byte(rawTerms), &r.InfluentialTerms); err != nil {
				s.logger.Warn("Failed to decode stored terms", zap.Error(err))
			}
		}
		if ts != 0 {
			r.Timestamp = time.UnixMilli(ts)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read feedback rows: %w", err)
	}
	return records, nil
}

func (s *sqlStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close %s database: %w", s.name, err)
	}
	return nil
}
