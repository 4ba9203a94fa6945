package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"library-loanhub/internal/adapters/persistence/models"
	"library-loanhub/internal/adapters/persistence/repositories"
	"library-loanhub/internal/adapters/persistence/testdb"
	"library-loanhub/internal/config"
	"library-loanhub/internal/core/domain"
	"library-loanhub/internal/core/services"
	"library-loanhub/internal/pkg/clock"
	"library-loanhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type deskApp struct {
	app   *fiber.App
	store *repositories.Store
	clock *clock.Fixed
}

// newDeskApp mounts the circulation handlers behind a stub that signs in
// user 1 as a librarian
func newDeskApp(t *testing.T) *deskApp {
	t.Helper()

	store := repositories.NewStore(testdb.Open(t))
	clk := clock.NewFixed(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
	policy := config.DefaultCirculation()
	copies := services.NewCopyRegistry(store, nil)
	queue := services.NewReservationQueue(store, clk, policy, copies, nil, nil)
	ledger := services.NewLoanLedger(store, clk, policy, copies, queue, nil, nil)

	loans := NewLoanHandler(ledger)
	reservations := NewReservationHandler(queue)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", uint(1))
		c.Locals("role", string(domain.RoleLibrarian))
		return c.Next()
	})
	app.Get("/loans/overdue", loans.ListOverdue)
	app.Get("/loans/:id", loans.GetLoan)
	app.Post("/loans", loans.CreateLoan)
	app.Post("/loans/:id/renew", loans.RenewLoan)
	app.Post("/loans/:id/return", loans.ReturnLoan)
	app.Post("/reservations", reservations.Enqueue)

	return &deskApp{app: app, store: store, clock: clk}
}

func (d *deskApp) do(t *testing.T, method, path string, body interface{}) (int, response.Response) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out response.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (d *deskApp) seed(t *testing.T) (bookID, copyID, clientID uint) {
	t.Helper()
	ctx := context.Background()
	book := &models.Book{ISBN: "B1", Title: "Book", Author: "Author", IsActive: true}
	require.NoError(t, d.store.Books.Create(ctx, book))
	item := &models.Copy{BookID: book.ID, Barcode: "C1", State: domain.CopyAvailable, IsActive: true}
	require.NoError(t, d.store.Copies.Create(ctx, item))
	client := &models.Client{CardNumber: "P1", FullName: "Patron", IsActive: true}
	require.NoError(t, d.store.Clients.Create(ctx, client))
	return book.ID, item.ID, client.ID
}

func TestLoanEndpoints(t *testing.T) {
	d := newDeskApp(t)
	_, copyID, clientID := d.seed(t)
	other := &models.Client{CardNumber: "P2", FullName: "Other", IsActive: true}
	require.NoError(t, d.store.Clients.Create(context.Background(), other))

	status, body := d.do(t, "POST", "/loans", fiber.Map{"client_id": clientID, "copy_id": copyID})
	require.Equal(t, fiber.StatusCreated, status, body.Error)
	assert.True(t, body.Success)

	status, body = d.do(t, "POST", "/loans", fiber.Map{"client_id": other.ID, "copy_id": copyID})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "copy_not_available", body.Code)
	assert.False(t, body.Retryable)

	status, body = d.do(t, "GET", "/loans/1", nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, body = d.do(t, "GET", "/loans/abc", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = d.do(t, "GET", "/loans/999", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "loan_not_found", body.Code)

	status, body = d.do(t, "POST", "/loans", fiber.Map{"client_id": clientID})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "invalid_input", body.Code)
}

func TestRenewDeniedWhileQueued(t *testing.T) {
	d := newDeskApp(t)
	bookID, copyID, clientID := d.seed(t)
	waiting := &models.Client{CardNumber: "P2", FullName: "Waiting", IsActive: true}
	require.NoError(t, d.store.Clients.Create(context.Background(), waiting))

	status, _ := d.do(t, "POST", "/loans", fiber.Map{"client_id": clientID, "copy_id": copyID})
	require.Equal(t, fiber.StatusCreated, status)
	status, _ = d.do(t, "POST", "/reservations", fiber.Map{"client_id": waiting.ID, "book_id": bookID})
	require.Equal(t, fiber.StatusCreated, status)

	status, body := d.do(t, "POST", "/loans/1/renew", nil)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "reservation_pending", body.Code)
}

func TestListOverduePaginates(t *testing.T) {
	d := newDeskApp(t)
	_, copyID, clientID := d.seed(t)

	status, _ := d.do(t, "POST", "/loans", fiber.Map{"client_id": clientID, "copy_id": copyID})
	require.Equal(t, fiber.StatusCreated, status)

	d.clock.Advance(20 * 24 * time.Hour)
	status, body := d.do(t, "GET", "/loans/overdue?page=1&limit=10", nil)
	require.Equal(t, fiber.StatusOK, status)

	page, ok := body.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Len(t, page["data"], 1)
	meta := page["meta"].(map[string]interface{})
	assert.Equal(t, float64(1), meta["total"])

	status, body = d.do(t, "GET", "/loans/overdue?page=3", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, body.Data.(map[string]interface{})["data"])
}

func TestRespondErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		code      string
		message   string
		retryable bool
	}{
		{"validation", errors.Wrap(domain.ErrInvalidAmount, "amount"), fiber.StatusBadRequest, "invalid_amount", "amount: amount must be positive", false},
		{"not found", errors.Wrapf(domain.ErrCopyNotFound, "copy %d", 7), fiber.StatusNotFound, "copy_not_found", "copy not found", false},
		{"denied", errors.Wrapf(domain.ErrDuplicateLoan, "client %d, book %d", 1, 2), fiber.StatusConflict, "duplicate_loan", domain.ErrDuplicateLoan.Message, false},
		{"copy on loan", errors.Wrapf(domain.ErrCopyNotAvailable, "copy %d is %s", 3, domain.CopyLoaned), fiber.StatusConflict, "copy_not_available", domain.ErrCopyNotAvailable.Message, false},
		{"bad credentials", domain.ErrInvalidCredentials, fiber.StatusUnauthorized, "invalid_credentials", "Invalid username or password", false},
		{"inactive user", domain.ErrUserInactive, fiber.StatusForbidden, "user_inactive", "User account is inactive", false},
		{"conflict", errors.Wrap(domain.ErrInvalidStateTransition, "copy 1"), fiber.StatusConflict, "invalid_state_transition", "invalid state transition", true},
		{"storage", domain.Storage(errors.New("connection refused")), fiber.StatusServiceUnavailable, "storage_unavailable", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return respondError(c, tt.err) })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			defer resp.Body.Close()

			var body response.Response
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.retryable, body.Retryable)
			if tt.message != "" {
				assert.Equal(t, tt.message, body.Error)
			}
			assert.NotContains(t, body.Error, "connection refused")
		})
	}
}

func TestHealthCheck(t *testing.T) {
	app := fiber.New()
	app.Get("/up", NewHealthHandler("dev", func() error { return nil }).HealthCheck)
	app.Get("/down", NewHealthHandler("dev", func() error { return errors.New("ping") }).HealthCheck)

	resp, err := app.Test(httptest.NewRequest("GET", "/up", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/down", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}
