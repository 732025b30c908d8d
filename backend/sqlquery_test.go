package backend

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/jonwraymond/datasentry/check"
)

func newMockAdapter(t *testing.T) (*SQLAdapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	a := NewSQLAdapter(check.KindWarehouse, func(context.Context) (*sql.DB, error) {
		return db, nil
	})
	return a, mock
}

func TestSQLAdapterRows(t *testing.T) {
	a, mock := newMockAdapter(t)
	mock.ExpectQuery("SELECT id, name FROM bad").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), []byte("alpha")).
			AddRow(int64(2), nil))

	res := a.Execute(context.Background(), check.WarehouseParams{Account: "a1", Query: "SELECT id, name FROM bad"})
	if res.Failure != nil {
		t.Fatalf("Execute() failure = %v", res.Failure)
	}
	rows := res.Data.([]map[string]any)
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0]["name"] != "alpha" {
		t.Errorf("rows[0][name] = %#v, want \"alpha\"", rows[0]["name"])
	}
	if rows[1]["name"] != nil {
		t.Errorf("rows[1][name] = %#v, want nil", rows[1]["name"])
	}
	if !a.IsConnected() {
		t.Error("IsConnected() = false after success")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSQLAdapterNonFiniteFloats(t *testing.T) {
	a, mock := newMockAdapter(t)
	mock.ExpectQuery("SELECT ratio FROM stats").
		WillReturnRows(sqlmock.NewRows([]string{"ratio", "peak", "floor", "plain"}).
			AddRow(math.NaN(), math.Inf(1), math.Inf(-1), 1.5))

	res := a.Execute(context.Background(), check.WarehouseParams{Account: "a1", Query: "SELECT ratio FROM stats"})
	if res.Failure != nil {
		t.Fatalf("Execute() failure = %v", res.Failure)
	}
	row := res.Data.([]map[string]any)[0]
	want := map[string]any{"ratio": "NaN", "peak": "+Inf", "floor": "-Inf", "plain": 1.5}
	for k, v := range want {
		if row[k] != v {
			t.Errorf("row[%s] = %#v, want %#v", k, row[k], v)
		}
	}
	if _, err := json.Marshal(res.Document()); err != nil {
		t.Errorf("json.Marshal(Document()) error = %v", err)
	}
}

func TestNormalizeFloat32(t *testing.T) {
	if got := normalize(float32(math.NaN())); got != "NaN" {
		t.Errorf("normalize(float32 NaN) = %#v, want \"NaN\"", got)
	}
	if got := normalize(float32(2)); got != float32(2) {
		t.Errorf("normalize(float32 2) = %#v, want float32(2)", got)
	}
}

func TestSQLAdapterEmptyResultIsArray(t *testing.T) {
	a, mock := newMockAdapter(t)
	mock.ExpectQuery("SELECT 1 WHERE 1=0").WillReturnRows(sqlmock.NewRows([]string{"x"}))

	res := a.Execute(context.Background(), check.WarehouseParams{Account: "a1", Query: "SELECT 1 WHERE 1=0"})
	rows, ok := res.Data.([]map[string]any)
	if !ok || rows == nil || len(rows) != 0 {
		t.Errorf("Data = %#v, want empty non-nil slice", res.Data)
	}
	if got := check.Validate(check.KindWarehouse, res.Document()); got != check.StatusNoDataIssues {
		t.Errorf("Validate() = %q, want %q", got, check.StatusNoDataIssues)
	}
}

func TestSQLAdapterReusesConnection(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatal(err)
	}
	opens := 0
	a := NewSQLAdapter(check.KindRelational, func(context.Context) (*sql.DB, error) {
		opens++
		return db, nil
	})
	mock.ExpectQuery("Q").WillReturnRows(sqlmock.NewRows([]string{"x"}))
	mock.ExpectQuery("Q").WillReturnRows(sqlmock.NewRows([]string{"x"}))

	params := check.RelationalParams{Server: "s", Query: "Q"}
	a.Execute(context.Background(), params)
	a.Execute(context.Background(), params)
	if opens != 1 {
		t.Errorf("opens = %d, want 1", opens)
	}
}

func TestSQLAdapterFailedOpenRetriesNextCall(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatal(err)
	}
	calls := 0
	a := NewSQLAdapter(check.KindRelational, func(context.Context) (*sql.DB, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("login failed")
		}
		return db, nil
	})
	params := check.RelationalParams{Server: "s", Query: "Q"}

	res := a.Execute(context.Background(), params)
	if res.Failure == nil || res.Failure.Class != ClassConnection {
		t.Fatalf("Failure = %v, want connection class", res.Failure)
	}
	if a.State() != StateFailed {
		t.Errorf("State() = %v, want failed", a.State())
	}
	if a.ConnectionStatus() != "Connection failed: login failed" {
		t.Errorf("ConnectionStatus() = %q", a.ConnectionStatus())
	}

	mock.ExpectQuery("Q").WillReturnRows(sqlmock.NewRows([]string{"x"}))
	res = a.Execute(context.Background(), params)
	if res.Failure != nil {
		t.Fatalf("second Execute() failure = %v", res.Failure)
	}
	if a.State() != StateOpen {
		t.Errorf("State() = %v, want open", a.State())
	}
}

func TestSQLAdapterQueryError(t *testing.T) {
	a, mock := newMockAdapter(t)
	mock.ExpectQuery("SELEC").WillReturnError(errors.New("syntax error"))

	res := a.Execute(context.Background(), check.WarehouseParams{Account: "a1", Query: "SELEC"})
	if res.Failure == nil || res.Failure.Class != ClassExecution {
		t.Fatalf("Failure = %v, want execution class", res.Failure)
	}
	if got := check.Validate(check.KindWarehouse, res.Document()); got != "Error - syntax error" {
		t.Errorf("Validate() = %q, want %q", got, "Error - syntax error")
	}
	if !a.IsConnected() {
		t.Error("execution error should keep the connection open")
	}
}

func TestSQLAdapterWrongParams(t *testing.T) {
	a, _ := newMockAdapter(t)
	res := a.Execute(context.Background(), check.IssueParams{Server: "s", JQL: "j"})
	if res.Failure == nil || res.Failure.Class != ClassParameters {
		t.Fatalf("Failure = %v, want parameters class", res.Failure)
	}
}

func TestSQLAdapterCloseIdempotent(t *testing.T) {
	a, mock := newMockAdapter(t)
	mock.ExpectQuery("Q").WillReturnRows(sqlmock.NewRows([]string{"x"}))
	mock.ExpectClose()

	a.Execute(context.Background(), check.WarehouseParams{Account: "a1", Query: "Q"})
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if a.IsConnected() {
		t.Error("IsConnected() = true after Close")
	}

	res := a.Execute(context.Background(), check.WarehouseParams{Account: "a1", Query: "Q"})
	if res.Failure == nil || res.Failure.Message != ErrClosed.Error() {
		t.Errorf("Execute after Close failure = %v, want %v", res.Failure, ErrClosed)
	}
}
