package sqlite

import (
	"context"
	"database/sql"

	"github.com/codequesthq/gate/internal/gate/domain"
	"github.com/codequesthq/gate/internal/gate/store"
)

type loginHistoryRepo struct {
	db dbtx
}

func (r *loginHistoryRepo) AppendLoginRecord(ctx context.Context, rec domain.LoginRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO login_history (id, user_id, at, agent_family, device_class, source_addr)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.At.UTC(), rec.AgentFamily, rec.DeviceClass, rec.SourceAddr,
	)
	return err
}

func (r *loginHistoryRepo) ListLoginRecords(ctx context.Context, userID string, limit int) ([]domain.LoginRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, at, agent_family, device_class, source_addr
		 FROM login_history
		 WHERE user_id = ?
		 ORDER BY at DESC, id DESC
		 LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.LoginRecord
	for rows.Next() {
		var rec domain.LoginRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.At, &rec.AgentFamily, &rec.DeviceClass, &rec.SourceAddr); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// requireOneRow maps zero-row updates to ErrNotFound so callers can tell
// "user gone" apart from driver failures.
func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
