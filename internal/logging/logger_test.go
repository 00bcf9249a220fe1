package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetState tears down the package-level logger state between tests.
func resetState(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		CloseAudit()
		CloseAll()
		logsDir = ""
		configMu.Lock()
		config = Config{}
		configMu.Unlock()
	})
}

func logFilePath(workspace string, category Category) string {
	date := time.Now().Format("2006-01-02")
	return filepath.Join(workspace, "logs", date+"_"+string(category)+".log")
}

func TestInitialize(t *testing.T) {
	t.Run("debug mode creates log files per category", func(t *testing.T) {
		resetState(t)
		dir := t.TempDir()
		require.NoError(t, Initialize(dir, Config{DebugMode: true, Level: "debug"}))

		Planner("generating roadmap for %q", "Software Engineer")
		ProbeDebug("probe %s -> %v", "IIT Bombay", true)
		Store("saved roadmap id=%s", "abc")
		CloseAll()

		for _, category := range []Category{CategoryBoot, CategoryPlanner, CategoryProbe, CategoryStore} {
			data, err := os.ReadFile(logFilePath(dir, category))
			require.NoError(t, err, "category %s", category)
			assert.NotEmpty(t, data)
		}

		planner, err := os.ReadFile(logFilePath(dir, CategoryPlanner))
		require.NoError(t, err)
		assert.Contains(t, string(planner), `"Software Engineer"`)
	})

	t.Run("production mode writes nothing", func(t *testing.T) {
		resetState(t)
		dir := t.TempDir()
		require.NoError(t, Initialize(dir, Config{DebugMode: false}))

		Planner("should not appear")
		CloseAll()

		_, err := os.Stat(filepath.Join(dir, "logs"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("disabled category is a no-op", func(t *testing.T) {
		resetState(t)
		dir := t.TempDir()
		require.NoError(t, Initialize(dir, Config{
			DebugMode:  true,
			Categories: map[string]bool{string(CategoryProbe): false},
		}))

		Probe("suppressed")
		Resolver("kept")
		CloseAll()

		_, err := os.Stat(logFilePath(dir, CategoryProbe))
		assert.True(t, os.IsNotExist(err))
		_, err = os.Stat(logFilePath(dir, CategoryResolver))
		assert.NoError(t, err)
	})

	t.Run("warn level suppresses info", func(t *testing.T) {
		resetState(t)
		dir := t.TempDir()
		require.NoError(t, Initialize(dir, Config{DebugMode: true, Level: "warn"}))

		Extractor("info line")
		ExtractorWarn("warn line")
		CloseAll()

		data, err := os.ReadFile(logFilePath(dir, CategoryExtractor))
		require.NoError(t, err)
		assert.NotContains(t, string(data), "info line")
		assert.Contains(t, string(data), "warn line")
	})

	t.Run("empty workspace is rejected", func(t *testing.T) {
		resetState(t)
		assert.Error(t, Initialize("", Config{DebugMode: true}))
	})

	t.Run("json format emits structured entries", func(t *testing.T) {
		resetState(t)
		dir := t.TempDir()
		require.NoError(t, Initialize(dir, Config{DebugMode: true, JSONFormat: true}))

		API("call completed in %dms", 42)
		CloseAll()

		data, err := os.ReadFile(logFilePath(dir, CategoryAPI))
		require.NoError(t, err)
		assert.Contains(t, string(data), `"cat":"api"`)
		assert.Contains(t, string(data), `"msg":"call completed in 42ms"`)
	})
}

func TestAudit(t *testing.T) {
	t.Run("events are written as JSON lines", func(t *testing.T) {
		resetState(t)
		dir := t.TempDir()
		require.NoError(t, Initialize(dir, Config{DebugMode: true}))
		require.NoError(t, InitAudit())

		AuditRoadmap("Software Engineer", "llm_generated", 0.85, 1500*time.Millisecond, nil)
		AuditProbes("BTech", "Computer Science", 3, 12, 30*time.Second)
		CloseAudit()

		date := time.Now().Format("2006-01-02")
		data, err := os.ReadFile(filepath.Join(dir, "logs", date+"_audit.log"))
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		require.Len(t, lines, 2)
		assert.Contains(t, lines[0], `"event":"roadmap_resolve"`)
		assert.Contains(t, lines[0], `"source":"llm_generated"`)
		assert.Contains(t, lines[0], `"dur_ms":1500`)
		assert.Contains(t, lines[1], `"event":"probe_batch"`)
		assert.Contains(t, lines[1], `"offering":3`)
	})

	t.Run("no-op without debug mode", func(t *testing.T) {
		resetState(t)
		dir := t.TempDir()
		require.NoError(t, Initialize(dir, Config{DebugMode: false}))
		require.NoError(t, InitAudit())

		AuditRoadmap("x", "cache", 1.0, time.Second, nil)
		CloseAudit()

		_, err := os.Stat(filepath.Join(dir, "logs"))
		assert.True(t, os.IsNotExist(err))
	})
}
