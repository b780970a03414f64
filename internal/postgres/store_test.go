package postgres

import (
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/proshopdata/salespipe/internal/ingest"
)

func TestClassifyInsertError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		wantFK bool
	}{
		{
			name:   "foreign key violation maps to ErrForeignKey",
			err:    &pgconn.PgError{Code: codeForeignKeyViolation, ConstraintName: "order_items_product_id_fkey"},
			wantFK: true,
		},
		{
			name:   "wrapped foreign key violation",
			err:    errors.Join(errors.New("exec"), &pgconn.PgError{Code: codeForeignKeyViolation}),
			wantFK: true,
		},
		{
			name:   "unique violation stays fatal",
			err:    &pgconn.PgError{Code: codeUniqueViolation},
			wantFK: false,
		},
		{
			name:   "plain error passes through",
			err:    errors.New("connection reset"),
			wantFK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyInsertError(tt.err)
			if isFK := errors.Is(got, ingest.ErrForeignKey); isFK != tt.wantFK {
				t.Errorf("errors.Is(got, ErrForeignKey) = %v, want %v (got err: %v)", isFK, tt.wantFK, got)
			}
			if !tt.wantFK && !errors.Is(got, tt.err) && got.Error() != tt.err.Error() {
				t.Errorf("non-FK error was rewritten: %v", got)
			}
		})
	}
}

func TestClassifyInsertError_KeepsConstraintName(t *testing.T) {
	err := classifyInsertError(&pgconn.PgError{
		Code:           codeForeignKeyViolation,
		ConstraintName: "orders_customer_id_fkey",
	})
	if err == nil {
		t.Fatal("classifyInsertError returned nil")
	}
	if want := "orders_customer_id_fkey"; !strings.Contains(err.Error(), want) {
		t.Errorf("error %q missing constraint name %q", err, want)
	}
}
