package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/appetiteclub/apt"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type billingFixture struct {
	repo     *MockPeriodRepo
	totals   *MockOrderTotals
	reporter *MockOrderReporter
	srv      *chi.Mux
}

func newBillingFixture() *billingFixture {
	f := &billingFixture{
		repo:     NewMockPeriodRepo(),
		totals:   NewMockOrderTotals(),
		reporter: NewMockOrderReporter(),
	}
	agg := NewAggregator(f.repo, f.totals, apt.NewNoopLogger())
	f.srv = chi.NewRouter()
	NewHandler(f.repo, agg, f.reporter, apt.NewConfig(), apt.NewNoopLogger()).RegisterRoutes(f.srv)
	return f
}

func decodeData(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("cannot decode response: %v", err)
	}
	data, ok := resp["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("Response does not contain data object: %s", body)
	}
	return data
}

func TestHandlerCreatePeriod(t *testing.T) {
	f := newBillingFixture()

	req := httptest.NewRequest(http.MethodPost, "/billing-periods", bytes.NewBufferString(`{"name":"March"}`))
	w := httptest.NewRecorder()
	f.srv.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("CreatePeriod() status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	data := decodeData(t, w.Body.Bytes())
	if data["active"] != false {
		t.Error("new period must start inactive")
	}

	req = httptest.NewRequest(http.MethodPost, "/billing-periods", bytes.NewBufferString(`{"name":"  "}`))
	w = httptest.NewRecorder()
	f.srv.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("blank name status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandlerActivateFlow(t *testing.T) {
	f := newBillingFixture()
	ctx := context.Background()

	first := NewPeriod()
	first.Name = "March"
	second := NewPeriod()
	second.Name = "April"
	f.repo.Create(ctx, first)
	f.repo.Create(ctx, second)

	for _, id := range []uuid.UUID{first.ID, second.ID} {
		req := httptest.NewRequest(http.MethodPut, "/billing-periods/"+id.String()+"/activate", nil)
		w := httptest.NewRecorder()
		f.srv.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("ActivatePeriod() status = %d, want %d", w.Code, http.StatusOK)
		}
	}

	if n := f.repo.activeCount(); n != 1 {
		t.Errorf("active periods = %d, want 1", n)
	}

	req := httptest.NewRequest(http.MethodGet, "/billing-periods/active/current", nil)
	w := httptest.NewRecorder()
	f.srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GetActivePeriod() status = %d, want %d", w.Code, http.StatusOK)
	}
	data := decodeData(t, w.Body.Bytes())
	if data["id"] != second.ID.String() {
		t.Errorf("active period = %v, want %v", data["id"], second.ID)
	}
}

func TestHandlerLifecycleUnknownPeriod(t *testing.T) {
	f := newBillingFixture()
	id := uuid.New().String()

	for _, action := range []string{"activate", "deactivate", "close"} {
		t.Run(action, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/billing-periods/"+id+"/"+action, nil)
			w := httptest.NewRecorder()
			f.srv.ServeHTTP(w, req)
			if w.Code != http.StatusNotFound {
				t.Errorf("%s on unknown period status = %d, want %d", action, w.Code, http.StatusNotFound)
			}
		})
	}
}

func TestHandlerGetActivePeriodNone(t *testing.T) {
	f := newBillingFixture()

	req := httptest.NewRequest(http.MethodGet, "/billing-periods/active/current", nil)
	w := httptest.NewRecorder()
	f.srv.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("GetActivePeriod() status = %d with none active, want %d", w.Code, http.StatusNotFound)
	}
}

func TestHandlerBillSummary(t *testing.T) {
	f := newBillingFixture()
	ctx := context.Background()

	period := NewPeriod()
	period.Name = "March"
	period.Active = true
	f.repo.Create(ctx, period)
	f.totals.Set(period.ID, 350, 2)

	req := httptest.NewRequest(http.MethodGet, "/bills/summary/"+period.ID.String(), nil)
	w := httptest.NewRecorder()
	f.srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("BillSummary() status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	data := decodeData(t, w.Body.Bytes())
	if data["total_amount"] != float64(350) || data["order_count"] != float64(2) {
		t.Errorf("bill = %v, want total 350 count 2", data)
	}
	if data["status"] != "active" {
		t.Errorf("status = %v, want active", data["status"])
	}
}

func TestHandlerBillSummaryFailures(t *testing.T) {
	f := newBillingFixture()
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/bills/summary/"+uuid.New().String(), nil)
	w := httptest.NewRecorder()
	f.srv.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("summary for unknown period status = %d, want %d", w.Code, http.StatusNotFound)
	}

	// An aggregation failure on a known period is a server error, not a miss.
	period := NewPeriod()
	period.Name = "March"
	f.repo.Create(ctx, period)
	f.totals.Err = errors.New("aggregation failed")

	req = httptest.NewRequest(http.MethodGet, "/bills/summary/"+period.ID.String(), nil)
	w = httptest.NewRecorder()
	f.srv.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("summary with failing totals status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestHandlerBillDetailed(t *testing.T) {
	f := newBillingFixture()
	ctx := context.Background()

	period := NewPeriod()
	period.Name = "March"
	period.Close()
	f.repo.Create(ctx, period)
	f.totals.Set(period.ID, 200, 2)
	f.reporter.Orders[period.ID] = []BillOrder{
		{
			OrderNumber:  "ORD-20260301-0001",
			CustomerName: "Alice",
			TotalAmount:  120,
			Status:       "completed",
			Lines: []BillLine{
				{Name: "Latte", Price: 120, Quantity: 1, Subtotal: 120},
			},
		},
		// Cancelled orders stay on the bill; the status column tells them apart.
		{
			OrderNumber:  "ORD-20260301-0002",
			CustomerName: "Bob",
			TotalAmount:  80,
			Status:       "cancelled",
			Lines: []BillLine{
				{Name: "Espresso", Price: 80, Quantity: 1, Subtotal: 80},
			},
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/bills/detailed/"+period.ID.String(), nil)
	w := httptest.NewRecorder()
	f.srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("BillDetailed() status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	data := decodeData(t, w.Body.Bytes())
	orders, ok := data["orders"].([]interface{})
	if !ok || len(orders) != 2 {
		t.Fatalf("orders = %v, want 2 entries", data["orders"])
	}
	second, ok := orders[1].(map[string]interface{})
	if !ok || second["status"] != "cancelled" {
		t.Errorf("second order = %v, want cancelled entry on the bill", orders[1])
	}
	if data["total_amount"] != float64(200) || data["order_count"] != float64(2) {
		t.Errorf("bill totals = %v, want 200 across 2 orders", data)
	}
	if data["status"] != "completed" {
		t.Errorf("status = %v, want completed for closed period", data["status"])
	}
}
