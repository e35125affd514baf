// Package integration runs the HTTP API end to end against PostgreSQL in a container.
package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"store-api/internal/catalog"
	"store-api/internal/database"
	"store-api/internal/model"
	"store-api/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// SetupTestDB starts PostgreSQL, applies the schema and seeds the sample catalogue.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start postgres container")

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	logger := zerolog.Nop()
	require.NoError(t, database.Migrate(ctx, pool, logger))

	seeder := catalog.NewSeeder(catalog.NewFileLoader("../../data", logger), repository.NewProductRepository(pool, logger), logger)
	count, err := seeder.Seed(ctx, []string{"products.yaml"})
	require.NoError(t, err)
	require.Positive(t, count)

	return pool
}

// fakeGateway is a minimal Swish API. Payment requests from rejectedAlias fail with BE18.
type fakeGateway struct {
	mu            sync.Mutex
	rejectedAlias string
	payments      map[string]map[string]any
	refunds       map[string]map[string]any
}

func newFakeGateway(rejectedAlias string) *fakeGateway {
	return &fakeGateway{
		rejectedAlias: rejectedAlias,
		payments:      map[string]map[string]any{},
		refunds:       map[string]map[string]any{},
	}
}

func (g *fakeGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]

	switch {
	case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/api/v2/paymentrequests/"):
		body := decodeBody(r.Body)
		if body["payerAlias"] == g.rejectedAlias {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`[{"errorCode":"BE18","errorMessage":"Payer alias is invalid"}]`))
			return
		}
		g.payments[id] = body
		w.WriteHeader(http.StatusCreated)

	case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/api/v2/refunds/"):
		g.refunds[id] = decodeBody(r.Body)
		w.WriteHeader(http.StatusCreated)

	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/api/v1/refunds/"):
		refund, ok := g.refunds[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		amount, _ := strconv.ParseFloat(fmt.Sprint(refund["amount"]), 64)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":                       id,
			"originalPaymentReference": refund["originalPaymentReference"],
			"amount":                   amount,
			"status":                   "PAID",
		})

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (g *fakeGateway) payment(id string) map[string]any {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.payments[id]
}

func decodeBody(r io.Reader) map[string]any {
	body := map[string]any{}
	_ = json.NewDecoder(r).Decode(&body)
	return body
}

// countingSender records confirmation emails instead of sending them.
type countingSender struct {
	mu     sync.Mutex
	orders []string
}

func (s *countingSender) SendConfirmationEmail(ctx context.Context, order *model.Order) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append(s.orders, order.ID.String())
	return true, nil
}

func (s *countingSender) sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.orders...)
}
