package gate

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/webpiratt/autoswap/config"
)

func testGate(t *testing.T, jobs ...config.JobSchedule) *Gate {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return New(logger, jobs...)
}

func at(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02 15:04:05", value)
	if err != nil {
		t.Fatal(err)
	}
	return ts.UTC()
}

func TestShouldFireEveryFiveMinutes(t *testing.T) {
	g := testGate(t, config.JobSchedule{Name: "order-manager", Expr: "0 */5 * * * *"})

	tests := []struct {
		now      string
		expected bool
	}{
		{"2026-08-29 12:05:00", true},
		{"2026-08-29 12:05:30", false}, // same window, mismatched seconds
		{"2026-08-29 12:10:00", true},
		{"2026-08-29 12:04:59", false},
		{"2026-08-29 12:00:00", true},
	}

	for _, tt := range tests {
		if got := g.ShouldFire("order-manager", at(t, tt.now)); got != tt.expected {
			t.Errorf("ShouldFire at %s = %v, expected %v", tt.now, got, tt.expected)
		}
	}
}

func TestShouldFireHourWindow(t *testing.T) {
	// Every 15 minutes between 01:00 and 05:59.
	g := testGate(t, config.JobSchedule{Name: "gas-optimizer", Expr: "0 */15 01-05 * * *"})

	tests := []struct {
		now      string
		expected bool
	}{
		{"2026-08-29 01:00:00", true},
		{"2026-08-29 01:15:00", true},
		{"2026-08-29 05:45:00", true},
		{"2026-08-29 01:15:31", false},
		{"2026-08-29 12:15:00", false}, // outside the hour window
	}

	for _, tt := range tests {
		if got := g.ShouldFire("gas-optimizer", at(t, tt.now)); got != tt.expected {
			t.Errorf("ShouldFire at %s = %v, expected %v", tt.now, got, tt.expected)
		}
	}
}

func TestShouldFireFiveFieldExpression(t *testing.T) {
	// Without a seconds field the schedule fires at second zero.
	g := testGate(t, config.JobSchedule{Name: "order-manager", Expr: "*/5 * * * *"})

	if !g.ShouldFire("order-manager", at(t, "2026-08-29 12:05:00")) {
		t.Error("expected firing at 12:05:00")
	}
	if g.ShouldFire("order-manager", at(t, "2026-08-29 12:05:30")) {
		t.Error("expected no firing at 12:05:30")
	}
}

func TestShouldFireUnknownJobFailsClosed(t *testing.T) {
	g := testGate(t, config.JobSchedule{Name: "order-manager", Expr: "0 */5 * * * *"})

	if g.ShouldFire("no-such-job", at(t, "2026-08-29 12:05:00")) {
		t.Error("unknown job must fail closed")
	}
}

func TestShouldFireMalformedExpressionFailsClosed(t *testing.T) {
	g := testGate(t, config.JobSchedule{Name: "broken", Expr: "not a cron expr"})

	if g.ShouldFire("broken", at(t, "2026-08-29 12:05:00")) {
		t.Error("malformed expression must fail closed")
	}
}
