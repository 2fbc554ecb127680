package nl2sql

import "testing"

func TestIsReadOnly(t *testing.T) {
	tests := []struct {
		sql  string
		want bool
	}{
		{sql: "SELECT 1", want: true},
		{sql: "  select device_type FROM cm.ad_click_et", want: true},
		{sql: "WITH t AS (SELECT 1) SELECT * FROM t", want: true},
		{sql: "SELECT\n\tcount(*) FROM cm.astra_logging", want: true},
		{sql: "select*from t", want: true},
		{sql: "SELECTION", want: false},
		{sql: "withdraw", want: false},
		{sql: "DROP TABLE cm.ad_click_et", want: false},
		{sql: "INSERT INTO cm.ad_click_et VALUES (1)", want: false},
		{sql: "", want: false},
	}
	for _, tt := range tests {
		if got := IsReadOnly(tt.sql); got != tt.want {
			t.Fatalf("IsReadOnly(%q) = %v, want %v", tt.sql, got, tt.want)
		}
	}
}
