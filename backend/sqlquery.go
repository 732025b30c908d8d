package backend

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/jonwraymond/datasentry/check"
)

// Opener opens a database handle for a SQL adapter.
type Opener func(ctx context.Context) (*sql.DB, error)

// SQLAdapter is the shared query adapter behind the warehouse and
// relational backends.
//
// The handle is opened and pinged on the first Execute, reused while the
// adapter reports itself open, and closed after a failed open or a broken
// connection so the next call starts fresh.
type SQLAdapter struct {
	Conn

	kind check.Kind
	open Opener

	mu     sync.Mutex
	db     *sql.DB
	closed bool
}

// NewSQLAdapter creates an unopened adapter serving checks of kind.
func NewSQLAdapter(kind check.Kind, open Opener) *SQLAdapter {
	a := &SQLAdapter{kind: kind, open: open}
	a.SetState(StateUnopened, "Not connected")
	return a
}

// Execute implements Adapter.
func (a *SQLAdapter) Execute(ctx context.Context, params check.Params) Result {
	query, timeout, err := queryOf(a.kind, params)
	if err != nil {
		return Fail(ClassParameters, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return Fail(ClassConnection, ErrClosed)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	db, failure := a.ensureOpen(ctx)
	if failure != nil {
		return Result{Failure: failure}
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		if errors.Is(err, driver.ErrBadConn) {
			a.drop(fmt.Sprintf("Connection lost: %v", err))
			return Fail(ClassConnection, err)
		}
		return Fail(ClassExecution, err)
	}
	defer rows.Close()

	data, err := ScanRows(rows)
	if err != nil {
		return Fail(ClassExecution, err)
	}
	return Success(data)
}

func (a *SQLAdapter) ensureOpen(ctx context.Context) (*sql.DB, *Failure) {
	if a.db != nil && a.State() == StateOpen {
		return a.db, nil
	}

	db, err := a.open(ctx)
	if err == nil {
		err = db.PingContext(ctx)
		if err != nil {
			_ = db.Close()
		}
	}
	if err != nil {
		a.db = nil
		a.SetState(StateFailed, fmt.Sprintf("Connection failed: %v", err))
		return nil, Fail(ClassConnection, err).Failure
	}

	a.db = db
	a.SetState(StateOpen, "Connected")
	return db, nil
}

func (a *SQLAdapter) drop(status string) {
	if a.db != nil {
		_ = a.db.Close()
		a.db = nil
	}
	a.SetState(StateFailed, status)
}

// Close implements Adapter.
func (a *SQLAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true

	var err error
	if a.db != nil {
		err = a.db.Close()
		a.db = nil
	}
	a.SetState(StateUnopened, "Disconnected")
	return err
}

func queryOf(kind check.Kind, params check.Params) (string, time.Duration, error) {
	if params == nil || params.Kind() != kind {
		return "", 0, ErrWrongParams
	}
	switch p := params.(type) {
	case check.WarehouseParams:
		return p.Query, 0, nil
	case check.RelationalParams:
		return p.Query, p.Timeout, nil
	default:
		return "", 0, fmt.Errorf("%w: %T", ErrWrongParams, params)
	}
}

// ScanRows reads every row into a field map. The result is never nil so an
// empty result set encodes as an empty array.
func ScanRows(rows *sql.Rows) ([]map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = normalize(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// normalize converts driver values to JSON-encodable ones. Non-finite
// floats have no JSON form and become "NaN", "+Inf" or "-Inf".
func normalize(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return strconv.FormatFloat(x, 'g', -1, 64)
		}
		return x
	case float32:
		if f := float64(x); math.IsNaN(f) || math.IsInf(f, 0) {
			return strconv.FormatFloat(f, 'g', -1, 32)
		}
		return x
	default:
		return v
	}
}
