package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/lib/pq"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		wantUnavailable bool
	}{
		{"nil", nil, false},
		{"no rows", sql.ErrNoRows, false},
		{"bad conn", driver.ErrBadConn, true},
		{"conn done", sql.ErrConnDone, true},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), true},
		{"connection failure", &pq.Error{Code: "08006"}, true},
		{"too many connections", &pq.Error{Code: "53300"}, true},
		{"admin shutdown", &pq.Error{Code: "57P01"}, true},
		{"query canceled", &pq.Error{Code: "57014"}, false},
		{"unique violation", &pq.Error{Code: "23505"}, false},
		{"dial error", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, true},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			if errors.Is(got, ErrUnavailable) != tt.wantUnavailable {
				t.Errorf("classify(%v) unavailable = %v, want %v", tt.err, !tt.wantUnavailable, tt.wantUnavailable)
			}
			if tt.err != nil && !errors.Is(got, tt.err) {
				t.Errorf("classify(%v) lost the original error", tt.err)
			}
		})
	}
}

func TestClassify_KeepsNoRowsUnwrapped(t *testing.T) {
	if got := classify(sql.ErrNoRows); got != sql.ErrNoRows {
		t.Errorf("classify(ErrNoRows) = %v, want sql.ErrNoRows as-is", got)
	}
}
