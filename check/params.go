package check

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Params is the kind-specific argument record of a check.
//
// Each variant is produced by the loader from the configuration document and
// is immutable afterwards.
type Params interface {
	// Kind returns the check kind the parameters belong to.
	Kind() Kind

	// Validate reports the first required field that is absent.
	Validate() error
}

// WarehouseParams configures a warehouse query check.
type WarehouseParams struct {
	Account       string
	User          string
	Password      string
	Authenticator string
	Token         string
	Database      string
	Schema        string
	Warehouse     string
	Role          string
	Query         string
}

// Kind implements Params.
func (p WarehouseParams) Kind() Kind { return KindWarehouse }

// Validate implements Params.
func (p WarehouseParams) Validate() error {
	return requireFields(map[string]string{
		"account": p.Account,
		"query":   p.Query,
	})
}

// RelationalParams configures a relational query check.
type RelationalParams struct {
	// Driver selects the SQL dialect: sqlserver (default), postgres or mysql.
	Driver   string
	Server   string
	Port     int
	Database string
	User     string
	Password string
	Query    string

	// Timeout bounds both connection and command execution.
	Timeout time.Duration
}

// Kind implements Params.
func (p RelationalParams) Kind() Kind { return KindRelational }

// Validate implements Params.
func (p RelationalParams) Validate() error {
	return requireFields(map[string]string{
		"server": p.Server,
		"query":  p.Query,
	})
}

// IntegratedSecurity reports whether the check authenticates as the process
// identity instead of a user/password pair.
func (p RelationalParams) IntegratedSecurity() bool {
	return p.User == ""
}

// OrchestrationParams configures a data-factory status check.
type OrchestrationParams struct {
	SubscriptionID string
	ResourceGroup  string
	Factory        string

	// ShirList names the self-hosted integration runtimes to inspect.
	// Empty means every self-hosted runtime of the factory.
	ShirList []string

	// TimezoneDelta is the offset in hours applied to reported times.
	TimezoneDelta int

	// LookbackHours is the pipeline-failure window. Default: 24.
	LookbackHours int

	// Token is an optional static bearer token. When empty the ambient
	// cloud credential chain is used.
	Token string

	// Endpoint overrides the management API base URL.
	Endpoint string
}

// Kind implements Params.
func (p OrchestrationParams) Kind() Kind { return KindOrchestration }

// Validate implements Params.
func (p OrchestrationParams) Validate() error {
	return requireFields(map[string]string{
		"subscription":   p.SubscriptionID,
		"resource_group": p.ResourceGroup,
		"factory":        p.Factory,
	})
}

// IssueParams configures an issue-tracker search check.
type IssueParams struct {
	Server     string
	Username   string
	Token      string
	JQL        string
	MaxResults int
	Timeout    time.Duration
}

// Kind implements Params.
func (p IssueParams) Kind() Kind { return KindIssueTracker }

// Validate implements Params.
func (p IssueParams) Validate() error {
	return requireFields(map[string]string{
		"server": p.Server,
		"jql":    p.JQL,
	})
}

// Defaults applied when a parameter is absent.
const (
	DefaultRelationalDatabase = "master"
	DefaultRelationalTimeout  = 30 * time.Second
	DefaultIssueMaxResults    = 100
	DefaultIssueTimeout       = 30 * time.Second
	DefaultLookbackHours      = 24
)

// ParseParams builds the typed parameter record for kind from a raw
// configuration entry.
func ParseParams(kind Kind, raw map[string]any) (Params, error) {
	d := document(raw)

	var p Params
	switch kind {
	case KindWarehouse:
		p = WarehouseParams{
			Account:       d.str("account"),
			User:          d.str("user", "user_name", "username"),
			Password:      d.str("password"),
			Authenticator: d.str("authenticator"),
			Token:         d.str("token"),
			Database:      d.str("database", "db"),
			Schema:        d.str("schema"),
			Warehouse:     d.str("warehouse"),
			Role:          d.str("role"),
			Query:         d.str("query", "sql_query"),
		}
	case KindRelational:
		driver := strings.ToLower(d.str("driver"))
		if driver == "" {
			driver = "sqlserver"
		}
		database := d.str("database")
		if database == "" && driver == "sqlserver" {
			database = DefaultRelationalDatabase
		}
		p = RelationalParams{
			Driver:   driver,
			Server:   d.str("server"),
			Port:     d.integer(0, "port"),
			Database: database,
			User:     d.str("user", "user_name", "username"),
			Password: d.str("password"),
			Query:    d.str("query", "sql_query"),
			Timeout:  d.seconds(DefaultRelationalTimeout, "timeout"),
		}
	case KindOrchestration:
		p = OrchestrationParams{
			SubscriptionID: d.str("subscription", "subscription_id"),
			ResourceGroup:  d.str("resource_group", "resource-group", "resource_group_name"),
			Factory:        d.str("factory", "factory_name"),
			ShirList:       d.strings("shir_list", "shir-list"),
			TimezoneDelta:  d.integer(0, "timezone_delta", "timezone-delta"),
			LookbackHours:  d.integer(DefaultLookbackHours, "lookback_hours"),
			Token:          d.str("token", "access_token"),
			Endpoint:       d.str("endpoint"),
		}
	case KindIssueTracker:
		p = IssueParams{
			Server:     strings.TrimRight(d.str("server"), "/"),
			Username:   d.str("username", "user", "email"),
			Token:      d.str("token", "access_token"),
			JQL:        d.str("jql", "jql_query"),
			MaxResults: d.integer(DefaultIssueMaxResults, "max_results", "max-results"),
			Timeout:    d.seconds(DefaultIssueTimeout, "timeout"),
		}
	default:
		return nil, ErrUnknownKind
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func requireFields(fields map[string]string) error {
	var missing []string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("%w: %s", ErrMissingParameter, strings.Join(missing, ", "))
}

// document reads loosely typed values out of a decoded configuration entry.
type document map[string]any

// str returns the first key present, rendering numbers as text.
func (d document) str(keys ...string) string {
	for _, k := range keys {
		v, ok := d[k]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case string:
			return val
		case json.Number:
			return val.String()
		case float64:
			return strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(val)
		}
	}
	return ""
}

func (d document) integer(def int, keys ...string) int {
	for _, k := range keys {
		v, ok := d[k]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case json.Number:
			if n, err := val.Int64(); err == nil {
				return int(n)
			}
			if f, err := val.Float64(); err == nil {
				return int(f)
			}
		case float64:
			return int(val)
		case int:
			return val
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
				return n
			}
		}
	}
	return def
}

// seconds reads an integer number of seconds.
func (d document) seconds(def time.Duration, keys ...string) time.Duration {
	n := d.integer(-1, keys...)
	if n <= 0 {
		return def
	}
	return time.Duration(n) * time.Second
}

func (d document) strings(keys ...string) []string {
	for _, k := range keys {
		v, ok := d[k]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case []any:
			out := make([]string, 0, len(val))
			for _, item := range val {
				if s, ok := item.(string); ok && s != "" {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return append([]string(nil), val...)
		case string:
			if val == "" {
				return nil
			}
			var out []string
			for _, part := range strings.Split(val, ",") {
				if part = strings.TrimSpace(part); part != "" {
					out = append(out, part)
				}
			}
			return out
		}
	}
	return nil
}
