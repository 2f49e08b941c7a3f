//go:build database

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startContainer starts req and returns the host and mapped port.
func startContainer(t *testing.T, req testcontainers.ContainerRequest, port string) (string, string) {
	t.Helper()
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(ctx) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	mapped, err := c.MappedPort(ctx, port)
	require.NoError(t, err)
	return host, mapped.Port()
}

// exerciseBackends runs the full cache and history round trip against env.
func exerciseBackends(t *testing.T, env []string, withHistory bool) {
	dir := sampleDir(t)
	report := []string{"report", "--data-dir", dir, "--days", "60", "--end", sampleEnd, "--output", "json"}

	_, err := runCommand(t, env, "data", "clear")
	require.NoError(t, err)
	if withHistory {
		_, err = runCommand(t, env, "history", "clear")
		require.NoError(t, err)
	}

	cold, err := runCommand(t, env, report...)
	require.NoError(t, err)
	warm, err := runCommand(t, env, report...)
	require.NoError(t, err)
	assert.JSONEq(t, cold, warm)

	status, err := runCommand(t, env, "data", "status", "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, status, "Total Entries: 1")

	if !withHistory {
		return
	}
	status, err = runCommand(t, env, "history", "status")
	require.NoError(t, err)
	assert.Contains(t, status, "Total Runs: 2")

	_, err = runCommand(t, env, "history", "migrate", "--to", "0")
	require.NoError(t, err)
	_, err = runCommand(t, env, "history", "migrate")
	require.NoError(t, err)
	status, err = runCommand(t, env, "history", "status")
	require.NoError(t, err)
	assert.Contains(t, status, "Total Runs: 0")
}

// TestPulsecheckWithMySQL tests the pulsecheck CLI with a MySQL backend.
func TestPulsecheckWithMySQL(t *testing.T) {
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "pulsecheck",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}, "3306")

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/pulsecheck?parseTime=true&multiStatements=true", host, port)
	exerciseBackends(t, []string{
		"PULSECHECK_CACHE_BACKEND=mysql",
		"PULSECHECK_CACHE_DB_CONNECT=" + connStr,
		"PULSECHECK_HISTORY_BACKEND=mysql",
		"PULSECHECK_HISTORY_DB_CONNECT=" + connStr,
	}, true)
}

// TestPulsecheckWithPostgres tests the pulsecheck CLI with a PostgreSQL backend.
func TestPulsecheckWithPostgres(t *testing.T) {
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}, "5432")

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres", host, port)
	exerciseBackends(t, []string{
		"PULSECHECK_CACHE_BACKEND=postgresql",
		"PULSECHECK_CACHE_DB_CONNECT=" + connStr,
		"PULSECHECK_HISTORY_BACKEND=postgresql",
		"PULSECHECK_HISTORY_DB_CONNECT=" + connStr,
	}, true)
}

// TestPulsecheckWithRedis tests the pulsecheck CLI with the Redis day cache.
func TestPulsecheckWithRedis(t *testing.T) {
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
	}, "6379")

	exerciseBackends(t, []string{
		"PULSECHECK_CACHE_BACKEND=redis",
		"PULSECHECK_CACHE_DB_CONNECT=" + fmt.Sprintf("redis://%s:%s/0", host, port),
	}, false)
}
