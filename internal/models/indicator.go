package models

import "time"

// IndicatorSample is the result of probing the external reporting table.
type IndicatorSample struct {
	Table       string              `json:"table"`
	Exists      bool                `json:"exists"`
	Columns     []string            `json:"columns,omitempty"`
	Rows        []map[string]string `json:"rows,omitempty"`
	OtherTables []string            `json:"other_tables,omitempty"`
}

// KPIFilter narrows the facts loaded for an indicator.
type KPIFilter struct {
	CourseID string
	Since    *time.Time
}
