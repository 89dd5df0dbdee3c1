package di

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/damon-houk/thrift-ledger/internal/config"
	"github.com/damon-houk/thrift-ledger/internal/infrastructure/db"
	"github.com/damon-houk/thrift-ledger/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Port:          8080,
		DataDir:       t.TempDir(),
		Collection:    "di-test",
		MongoDatabase: "ledger",
		LogLevel:      "error",
	}
}

func TestBuildWiresLocalLedger(t *testing.T) {
	log := logger.NewJSONLogger(io.Discard, logger.ErrorLevel)

	app, err := Build(t.Context(), testConfig(t), log)
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })

	assert.IsType(t, &db.BadgerTransactionStore{}, app.Store)

	body := `{"amount": 25, "date": "2024-05-01", "description": "Lunch", "type": "expense"}`
	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	// the maintainer is subscribed, so the summary follows the create
	assert.Equal(t, "-25", app.Metrics.Balance().String())
	assert.Len(t, app.Transactions.ListAll(t.Context()), 1)
}

func TestBuildRejectsUnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.DatabaseURL = "redis://localhost:6379"

	_, err := Build(t.Context(), cfg, logger.NewJSONLogger(io.Discard, logger.ErrorLevel))
	assert.Error(t, err)
}
