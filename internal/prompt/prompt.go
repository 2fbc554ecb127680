// Package prompt builds the text sent to the completion model for one chat
// message.
package prompt

import (
	_ "embed"
	"fmt"
)

// SchemaDescription documents the cm.astra_logging and cm.ad_click_et tables
// and the opp_id join key. It is compiled into the binary and never changes
// at runtime.
//
//go:embed schema.md
var SchemaDescription string

const preamble = "You are a ClickHouse SQL assistant. Return only the SQL query, no explanations."

// Build embeds message verbatim (no escaping) between double quotes after
// the preamble and SchemaDescription.
func Build(message string) string {
	return fmt.Sprintf("\n%s\n\n%s\n\nConvert this to a SQL query:\n\"%s\"\n", preamble, SchemaDescription, message)
}
