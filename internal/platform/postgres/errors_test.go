package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/parrotdeck/srs-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    error
		wantWrap error
	}{
		{name: "nil error", input: nil, wantWrap: nil},
		{name: "no rows", input: sql.ErrNoRows, wantWrap: store.ErrNotFound},
		{
			name:     "wrapped no rows",
			input:    fmt.Errorf("querying card: %w", sql.ErrNoRows),
			wantWrap: store.ErrNotFound,
		},
		{
			name:     "unique violation",
			input:    &pgconn.PgError{Code: "23505", ConstraintName: "idx_review_logs_submission"},
			wantWrap: store.ErrDuplicate,
		},
		{
			name:     "foreign key violation",
			input:    &pgconn.PgError{Code: "23503", ConstraintName: "cards_origin_card_id_fkey"},
			wantWrap: store.ErrInvalidEntity,
		},
		{
			name:     "check violation",
			input:    &pgconn.PgError{Code: "23514", ConstraintName: "cards_ease_factor_check"},
			wantWrap: store.ErrInvalidEntity,
		},
		{
			name:     "not null violation",
			input:    &pgconn.PgError{Code: "23502", ColumnName: "front"},
			wantWrap: store.ErrInvalidEntity,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := MapError(tc.input)
			if tc.wantWrap == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tc.wantWrap)
		})
	}

	t.Run("unknown errors pass through unchanged", func(t *testing.T) {
		t.Parallel()

		original := errors.New("connection reset by peer")
		assert.Equal(t, original, MapError(original))
	})
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("not a pg error")))
}

type fakeResult struct {
	rows int64
	err  error
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, r.err }

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	t.Run("rows affected", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, CheckRowsAffected(fakeResult{rows: 1}, "card"))
	})

	t.Run("zero rows maps to not found", func(t *testing.T) {
		t.Parallel()

		err := CheckRowsAffected(fakeResult{rows: 0}, "card")
		require.Error(t, err)
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.Contains(t, err.Error(), "card")
	})

	t.Run("nil result", func(t *testing.T) {
		t.Parallel()
		assert.Error(t, CheckRowsAffected(nil, "card"))
	})
}
