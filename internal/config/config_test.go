package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, DriverMySQL, cfg.DBDriver)
	assert.Equal(t, int32(0), cfg.CurrencyScale)
	assert.True(t, cfg.PaymentTolerance.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, 72*time.Hour, cfg.ReminderWindow)
	assert.Equal(t, 300*time.Second, cfg.IdempotencyTTL())
	assert.Empty(t, cfg.KafkaBrokers)

	d := cfg.SettingsDefaults()
	assert.True(t, d.MinAmount.Equal(decimal.NewFromInt(10_000)))
	assert.Equal(t, 60, d.MaxDurationMonths)
	assert.Equal(t, 30, d.GracePeriodDays)
	assert.True(t, d.Active)
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "configs"), 0o755))
	content := "APP_PORT=9090\nDB_DRIVER=postgres\nPOSTGRES_URL=postgres://u:p@db:5432/loans\nREMINDER_WINDOW=48h\nLOAN_MAX_RATE=24.5\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", "test.env"), []byte(content), 0o644))
	chdir(t, dir)
	t.Setenv("APP_PORT", "7070")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load("test")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "7070", cfg.AppPort, "environment overrides the file")
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, "postgres://u:p@db:5432/loans", cfg.DSN())
	assert.Equal(t, 48*time.Hour, cfg.ReminderWindow)
	assert.True(t, cfg.LoanMaxRate.Equal(decimal.RequireFromString("24.5")))
	assert.Equal(t, "k1:9092,k2:9092", cfg.KafkaBrokers)
}

func TestLoad_BadDecimal(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PAYMENT_TOLERANCE", "one")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PAYMENT_TOLERANCE")
}

func TestValidate(t *testing.T) {
	chdir(t, t.TempDir())
	base, err := Load("")
	require.NoError(t, err)

	cases := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"unknown driver", func(c *Config) { c.DBDriver = "oracle" }, "unsupported DB_DRIVER"},
		{"bad mysql port", func(c *Config) { c.MySQLPort = "not-a-port" }, "invalid MYSQL_PORT"},
		{"postgres without url", func(c *Config) { c.DBDriver, c.PostgresURL = DriverPostgres, "" }, "POSTGRES_URL"},
		{"kafka without topic", func(c *Config) { c.KafkaBrokers, c.KafkaLoanEventsTopic = "k:9092", "" }, "KAFKA_LOAN_EVENTS_TOPIC"},
		{"scale", func(c *Config) { c.CurrencyScale = 9 }, "CURRENCY_SCALE"},
		{"amount range", func(c *Config) { c.LoanMaxAmount = decimal.NewFromInt(1) }, "loan amount range"},
		{"duration range", func(c *Config) { c.LoanMinDuration = 0 }, "loan duration range"},
		{"idempotency ttl", func(c *Config) { c.IdempTTLSecs = 0 }, "IDEMPOTENCY_TTL_SECONDS"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := *base
			tc.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestMySQLDSN(t *testing.T) {
	c := &Config{MySQLUser: "u", MySQLPass: "p", MySQLHost: "db", MySQLPort: "3306", MySQLDB: "loans", DBDriver: DriverMySQL}
	assert.Equal(t, "u:p@tcp(db:3306)/loans?multiStatements=true&parseTime=true&loc=UTC&charset=utf8mb4,utf8", c.DSN())
}
