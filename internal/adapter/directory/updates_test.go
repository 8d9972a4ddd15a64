package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const report = `Data Science Weekly Status Update
Week of March 3

Jane Doe:
Shipped the DHCP anomaly model to staging.
Target for next week: tune alert thresholds.

Janet Roe - Cleaned the DNS query logs for the forecasting pipeline.
Completed Work
Target for next week:
Start the capacity forecast.

Bob Stone
Wrote onboarding docs for the lab cluster.
`

func TestParseUpdates(t *testing.T) {
	updates := ParseUpdates(report)
	require.Len(t, updates, 3)

	assert.Equal(t, "Jane Doe", updates[0].Name)
	assert.Equal(t, "Shipped the DHCP anomaly model to staging.", updates[0].Completed)
	assert.Equal(t, "tune alert thresholds.", updates[0].Planned)

	assert.Equal(t, "Janet Roe", updates[1].Name)
	assert.Contains(t, updates[1].Completed, "DNS query logs")
	assert.Equal(t, "Start the capacity forecast.", updates[1].Planned)

	assert.Equal(t, "Bob Stone", updates[2].Name)
	assert.Equal(t, "Wrote onboarding docs for the lab cluster.", updates[2].Completed)
	assert.Empty(t, updates[2].Planned)
	assert.Equal(t, updates[2].Completed, updates[2].Content)
}

func TestParseUpdates_NoHeaders(t *testing.T) {
	assert.Empty(t, ParseUpdates("no names in this text at all"))
	assert.Empty(t, ParseUpdates(""))
}

func TestTitle(t *testing.T) {
	d := load(t)
	assert.Equal(t, "Engineer", d.Title("Jane Doe"))
	assert.Equal(t, "Intern", d.Title("bob"))
	assert.Empty(t, d.Title("Zed"))
	assert.Empty(t, d.Title(" "))
}
