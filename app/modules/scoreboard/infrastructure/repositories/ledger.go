package scoreboarddb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	scoreboarddomain "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/domain"
	"github.com/uptrace/bun"
)

// Impl is the Postgres ledger.
type Impl struct {
	DB *bun.DB
}

func NewRepository(db *bun.DB) Repository {
	return &Impl{DB: db}
}

func (r *Impl) idb(db bun.IDB) bun.IDB {
	if db == nil {
		return r.DB
	}
	return db
}

func (r *Impl) AppendSubmissions(ctx context.Context, db bun.IDB, contestID string, subs []scoreboarddomain.Submission) error {
	if len(subs) == 0 {
		return nil
	}

	rows := make([]*Submission, 0, len(subs))
	for _, s := range subs {
		rows = append(rows, fromDomain(contestID, s))
	}

	res, err := r.idb(db).NewInsert().
		Model(&rows).
		On("CONFLICT (contest_id, id) DO UPDATE").
		Set("source = EXCLUDED.source").
		Set("team_id = EXCLUDED.team_id").
		Set("problem_ref = EXCLUDED.problem_ref").
		Set("verdict = EXCLUDED.verdict").
		Set("raw_status = EXCLUDED.raw_status").
		Set("submitted_at = EXCLUDED.submitted_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to append %d submissions for contest %s: %w", len(subs), contestID, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

func (r *Impl) ListSubmissions(ctx context.Context, db bun.IDB, contestID string, afterID int64, limit int) ([]scoreboarddomain.Submission, error) {
	var rows []Submission
	q := r.idb(db).NewSelect().
		Model(&rows).
		Where("contest_id = ?", contestID).
		Where("id > ?", afterID).
		Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list submissions after %d: %w", afterID, err)
	}

	out := make([]scoreboarddomain.Submission, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

func (r *Impl) GetSubmission(ctx context.Context, db bun.IDB, contestID string, id int64) (scoreboarddomain.Submission, error) {
	row := new(Submission)
	err := r.idb(db).NewSelect().
		Model(row).
		Where("contest_id = ?", contestID).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return scoreboarddomain.Submission{}, ErrNotFound
		}
		return scoreboarddomain.Submission{}, fmt.Errorf("failed to get submission %d: %w", id, err)
	}
	return row.toDomain(), nil
}

func (r *Impl) HighWaterMark(ctx context.Context, db bun.IDB, contestID string) (int64, error) {
	var mark sql.NullInt64
	err := r.idb(db).NewSelect().
		Model((*Submission)(nil)).
		ColumnExpr("MAX(id)").
		Where("contest_id = ?", contestID).
		Scan(ctx, &mark)
	if err != nil {
		return 0, fmt.Errorf("failed to read high-water mark: %w", err)
	}
	return mark.Int64, nil
}
