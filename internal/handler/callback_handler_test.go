package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Horanet/payment-payzen/internal/models"
	"github.com/Horanet/payment-payzen/internal/payzen"
	"github.com/Horanet/payment-payzen/internal/service"
)

var handlerCodec = payzen.SignatureCodec{Algorithm: payzen.AlgorithmSHA1}

// memStore is a minimal in-memory store backing the handler tests.
type memStore struct {
	mu sync.Mutex
	tx *models.Transaction
}

func (s *memStore) Create(ctx context.Context, tx *models.Transaction) error { return nil }

func (s *memStore) GetByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx == nil || s.tx.Reference != reference {
		return nil, &payzen.LookupError{Reference: reference}
	}
	clone := *s.tx
	return &clone, nil
}

func (s *memStore) FindCandidates(ctx context.Context, minAge, maxAge time.Duration) ([]models.Transaction, error) {
	return nil, nil
}

func (s *memStore) WithTransactionLock(ctx context.Context, reference string, fn func(tx *models.Transaction) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx == nil || s.tx.Reference != reference {
		return &payzen.LookupError{Reference: reference}
	}
	record := *s.tx
	changed, err := fn(&record)
	if err != nil {
		return err
	}
	if changed {
		*s.tx = record
	}
	return nil
}

func newTestRouter(store *memStore) *gin.Engine {
	acquirer := &models.Acquirer{
		ShopID:      "12345678",
		TestCert:    "testcert1234",
		Environment: models.EnvironmentTest,
	}
	callbacks := service.NewCallbackService(store, acquirer, handlerCodec, payzen.SlashSpaceCodec{}, nil, zap.NewNop())
	h := NewCallbackHandler(callbacks, "https://shop.example.com/checkout/done", zap.NewNop())

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/payment/payzen/return", h.Return)
	router.GET("/payment/payzen/return", h.Return)
	return router
}

func signedForm(status string) url.Values {
	values := url.Values{}
	values.Set("vads_order_id", "SO0042")
	values.Set("vads_trans_uuid", "uuid-123")
	values.Set("vads_amount", "2000")
	values.Set("vads_cust_id", "42")
	values.Set("vads_site_id", "12345678")
	values.Set("vads_auth_result", "00")
	values.Set("vads_trans_status", status)
	values.Set("signature", handlerCodec.Sign(values, "testcert1234"))
	return values
}

func draftRecord() *models.Transaction {
	return &models.Transaction{
		ID:        "tx-1",
		Reference: "SO0042",
		Amount:    decimal.RequireFromString("20.00"),
		Currency:  "EUR",
		State:     models.TxStateDraft,
		Partner:   models.Partner{ID: 42},
	}
}

func TestReturnAppliesCallbackAndRedirects(t *testing.T) {
	store := &memStore{tx: draftRecord()}
	router := newTestRouter(store)

	form := signedForm("AUTHORISED")
	req := httptest.NewRequest(http.MethodPost, "/payment/payzen/return", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if got := rec.Header().Get("Location"); got != "https://shop.example.com/checkout/done" {
		t.Errorf("redirect location = %q", got)
	}
	if store.tx.State != models.TxStateDone {
		t.Errorf("state = %v, want done", store.tx.State)
	}
}

// The browser must land on the shop page, never back on this route: the
// callback route receives no query params on a bare redirect, so bouncing the
// customer here again would loop forever.
func TestReturnNeverRedirectsToItself(t *testing.T) {
	store := &memStore{tx: draftRecord()}
	acquirer := &models.Acquirer{
		ShopID:      "12345678",
		TestCert:    "testcert1234",
		Environment: models.EnvironmentTest,
	}
	callbacks := service.NewCallbackService(store, acquirer, handlerCodec, payzen.SlashSpaceCodec{}, nil, zap.NewNop())
	h := NewCallbackHandler(callbacks, "", zap.NewNop())

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/payment/payzen/return", h.Return)

	form := signedForm("AUTHORISED")
	req := httptest.NewRequest(http.MethodPost, "/payment/payzen/return", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	loc := rec.Header().Get("Location")
	if loc == "" {
		t.Fatal("no redirect location")
	}
	if strings.Contains(loc, "/payment/payzen/return") {
		t.Errorf("redirect location %q points back at the callback route", loc)
	}
}

func TestReturnAcceptsGetMode(t *testing.T) {
	store := &memStore{tx: draftRecord()}
	router := newTestRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/payment/payzen/return?"+signedForm("CANCELLED").Encode(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if store.tx.State != models.TxStateCancel {
		t.Errorf("state = %v, want cancel", store.tx.State)
	}
}

func TestReturnRedirectsOnFailureToo(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
	}{
		{
			name: "forged signature",
			form: func() url.Values {
				form := signedForm("AUTHORISED")
				form.Set("signature", "forgedforgedforgedforgedforgedforgedfor0")
				return form
			}(),
		},
		{
			name: "unknown reference",
			form: func() url.Values {
				form := url.Values{}
				form.Set("vads_order_id", "NOPE")
				form.Set("vads_trans_status", "AUTHORISED")
				form.Set("signature", handlerCodec.Sign(form, "testcert1234"))
				return form
			}(),
		},
		{
			name: "empty body",
			form: url.Values{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memStore{tx: draftRecord()}
			router := newTestRouter(store)

			req := httptest.NewRequest(http.MethodPost, "/payment/payzen/return", strings.NewReader(tt.form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			// the gateway retries on non-2xx/3xx and the customer must never
			// be stranded: errors stay operator-side
			if rec.Code != http.StatusSeeOther {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
			}
			if store.tx.State != models.TxStateDraft {
				t.Errorf("state = %v, want draft untouched", store.tx.State)
			}
		})
	}
}
