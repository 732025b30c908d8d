package check

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func decodeEntry(t *testing.T, text string) map[string]any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		t.Fatal(err)
	}
	return m
}

func TestParseParams_Relational(t *testing.T) {
	raw := decodeEntry(t, `{"server": "db01", "query": "SELECT 1", "timeout": 5}`)

	p, err := ParseParams(KindRelational, raw)
	if err != nil {
		t.Fatalf("ParseParams() error = %v", err)
	}
	rp := p.(RelationalParams)
	if rp.Driver != "sqlserver" {
		t.Errorf("Driver = %q, want sqlserver", rp.Driver)
	}
	if rp.Database != DefaultRelationalDatabase {
		t.Errorf("Database = %q, want %q", rp.Database, DefaultRelationalDatabase)
	}
	if rp.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", rp.Timeout)
	}
	if !rp.IntegratedSecurity() {
		t.Error("IntegratedSecurity() should be true without a user")
	}
}

func TestParseParams_RelationalPostgres(t *testing.T) {
	raw := decodeEntry(t, `{"driver": "Postgres", "server": "pg", "query": "SELECT 1", "user": "u"}`)

	p, err := ParseParams(KindRelational, raw)
	if err != nil {
		t.Fatalf("ParseParams() error = %v", err)
	}
	rp := p.(RelationalParams)
	if rp.Driver != "postgres" || rp.Database != "" {
		t.Errorf("Driver = %q Database = %q, want postgres and no default database", rp.Driver, rp.Database)
	}
	if rp.Timeout != DefaultRelationalTimeout {
		t.Errorf("Timeout = %v, want default", rp.Timeout)
	}
}

func TestParseParams_Orchestration(t *testing.T) {
	raw := decodeEntry(t, `{
		"subscription_id": "sub", "resource_group_name": "rg", "factory_name": "f",
		"shir_list": ["shir-a", "", "shir-b"], "timezone_delta": -5
	}`)

	p, err := ParseParams(KindOrchestration, raw)
	if err != nil {
		t.Fatalf("ParseParams() error = %v", err)
	}
	op := p.(OrchestrationParams)
	if len(op.ShirList) != 2 || op.ShirList[1] != "shir-b" {
		t.Errorf("ShirList = %v, want [shir-a shir-b]", op.ShirList)
	}
	if op.TimezoneDelta != -5 {
		t.Errorf("TimezoneDelta = %d, want -5", op.TimezoneDelta)
	}
	if op.LookbackHours != DefaultLookbackHours {
		t.Errorf("LookbackHours = %d, want %d", op.LookbackHours, DefaultLookbackHours)
	}
}

func TestParseParams_MissingFields(t *testing.T) {
	tests := []struct {
		kind Kind
		raw  string
		want string
	}{
		{KindWarehouse, `{"query": "Q"}`, "account"},
		{KindRelational, `{}`, "query, server"},
		{KindOrchestration, `{"factory": "f"}`, "resource_group, subscription"},
		{KindIssueTracker, `{"server": "s"}`, "jql"},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			_, err := ParseParams(tt.kind, decodeEntry(t, tt.raw))
			if !errors.Is(err, ErrMissingParameter) {
				t.Fatalf("error = %v, want ErrMissingParameter", err)
			}
			if !strings.HasSuffix(err.Error(), tt.want) {
				t.Errorf("error = %q, want suffix %q", err.Error(), tt.want)
			}
		})
	}
}

func TestParseParams_UnknownKind(t *testing.T) {
	if _, err := ParseParams(KindUnknown, map[string]any{}); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("error = %v, want ErrUnknownKind", err)
	}
}

func TestParseKind(t *testing.T) {
	tests := map[string]Kind{
		"warehouse":     KindWarehouse,
		"Snowflake":     KindWarehouse,
		" sqlserver ":   KindRelational,
		"adf":           KindOrchestration,
		"issue-tracker": KindIssueTracker,
		"JIRA":          KindIssueTracker,
		"oracle":        KindUnknown,
	}
	for in, want := range tests {
		if got := ParseKind(in); got != want {
			t.Errorf("ParseKind(%q) = %v, want %v", in, got, want)
		}
	}
}
