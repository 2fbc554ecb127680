package nl2sql

import "testing"

func TestSanitizeSQLStripsFences(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "sql fence", raw: "```sql\nSELECT 1;\n```", want: "SELECT 1;"},
		{name: "bare fence", raw: "```\nSELECT count() FROM cm.ad_click_et\n```", want: "SELECT count() FROM cm.ad_click_et"},
		{name: "upper case tag", raw: "```SQL\nSELECT 2\n```", want: "SELECT 2"},
		{name: "mixed case tag", raw: "```Sql SELECT 3```", want: "SELECT 3"},
		{name: "no fence", raw: "  SELECT uid FROM cm.astra_logging LIMIT 10  ", want: "SELECT uid FROM cm.astra_logging LIMIT 10"},
		{name: "fence mid text", raw: "Here you go:\n```sql\nSELECT 4\n```", want: "Here you go:\n\nSELECT 4"},
		{name: "other language tag kept", raw: "```clickhouse\nSELECT 5\n```", want: "clickhouse\nSELECT 5"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeSQL(tc.raw); got != tc.want {
				t.Fatalf("SanitizeSQL(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestSanitizeSQLFallsBackWhenEmpty(t *testing.T) {
	for _, raw := range []string{"", "   ", "\n\t", "```sql\n```", "``````"} {
		if got := SanitizeSQL(raw); got != FallbackSQL {
			t.Fatalf("SanitizeSQL(%q) = %q, want %q", raw, got, FallbackSQL)
		}
	}
}

func TestSanitizeSQLIsIdempotent(t *testing.T) {
	inputs := []string{
		"```sql\nSELECT device_type, SUM(net_total_revenue) FROM cm.ad_click_et GROUP BY device_type\n```",
		"",
		"DELETE FROM cm.ad_click_et",
		"```SQL``` SELECT 1 ```",
	}
	for _, raw := range inputs {
		once := SanitizeSQL(raw)
		if twice := SanitizeSQL(once); twice != once {
			t.Fatalf("SanitizeSQL not idempotent for %q: %q then %q", raw, once, twice)
		}
	}
}
