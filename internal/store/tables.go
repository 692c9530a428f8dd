package store

import (
	"fmt"

	"webmon/internal/models"
)

// Table names for the two persisted shapes.
const (
	TableWebsite     = "website"
	TableHealthcheck = "healthcheck"
)

// SiteSchema is the explicit column layout of the website table.
func SiteSchema() Schema {
	return Schema{Columns: []Column{
		{Name: "website_id", Type: ColInt, PrimaryKey: true},
		{Name: "url", Type: ColText, Unique: true},
		{Name: "interval", Type: ColInt},
		{Name: "regex", Type: ColText},
	}}
}

// HealthcheckSchema is the explicit column layout of the healthcheck table.
func HealthcheckSchema() Schema {
	return Schema{Columns: []Column{
		{Name: "check_id", Type: ColInt, PrimaryKey: true},
		{Name: "website_fk", Type: ColInt},
		{Name: "request_timestamp", Type: ColFloat},
		{Name: "response_time", Type: ColFloat},
		{Name: "http_status_code", Type: ColInt},
		{Name: "regex_match_status", Type: ColEnum},
		{Name: "error_message", Type: ColText},
	}}
}

// siteValues returns the insert values for s, matching
// SiteSchema().InsertColumns() order.
func siteValues(s models.Site) []any {
	return []any{s.URL, s.IntervalSeconds, s.Regex}
}

// healthcheckValues returns the insert values for h, matching
// HealthcheckSchema().InsertColumns() order.
func healthcheckValues(h models.Healthcheck) []any {
	return []any{h.WebsiteID, h.RequestTimestamp, h.ResponseTime, h.HTTPStatusCode, int(h.MatchStatus), h.ErrorMessage}
}

func siteFromRow(r Row) (models.Site, error) {
	id, err := rowInt(r, "website_id")
	if err != nil {
		return models.Site{}, err
	}
	interval, err := rowInt(r, "interval")
	if err != nil {
		return models.Site{}, err
	}
	return models.Site{
		ID:              id,
		URL:             rowText(r, "url"),
		IntervalSeconds: int(interval),
		Regex:           rowText(r, "regex"),
	}, nil
}

func healthcheckFromRow(r Row) (models.Healthcheck, error) {
	id, err := rowInt(r, "check_id")
	if err != nil {
		return models.Healthcheck{}, err
	}
	fk, err := rowInt(r, "website_fk")
	if err != nil {
		return models.Healthcheck{}, err
	}
	status, err := rowInt(r, "http_status_code")
	if err != nil {
		return models.Healthcheck{}, err
	}
	match, err := rowInt(r, "regex_match_status")
	if err != nil {
		return models.Healthcheck{}, err
	}
	ts, err := rowFloat(r, "request_timestamp")
	if err != nil {
		return models.Healthcheck{}, err
	}
	rt, err := rowFloat(r, "response_time")
	if err != nil {
		return models.Healthcheck{}, err
	}
	return models.Healthcheck{
		ID:               id,
		WebsiteID:        fk,
		RequestTimestamp: ts,
		ResponseTime:     rt,
		HTTPStatusCode:   int(status),
		MatchStatus:      models.MatchStatus(match),
		ErrorMessage:     rowText(r, "error_message"),
	}, nil
}

// rowText reads a text column, mapping NULL to "".
func rowText(r Row, col string) string {
	switch v := r[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// rowInt reads an integer column, mapping NULL to 0.
func rowInt(r Row, col string) (int64, error) {
	switch v := r[col].(type) {
	case nil:
		return 0, nil
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("column %s: unexpected type %T", col, v)
	}
}

// rowFloat reads a floating-point column, mapping NULL to 0.
func rowFloat(r Row, col string) (float64, error) {
	switch v := r[col].(type) {
	case nil:
		return 0, nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("column %s: unexpected type %T", col, v)
	}
}
