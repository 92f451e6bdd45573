//go:build integration

package integration

import (
	"net/http"
	"regexp"
	"testing"
	"time"
)

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

type discountRequest struct {
	ProductID string    `json:"productId"`
	NewPrice  string    `json:"newPrice"`
	Currency  string    `json:"currency"`
	ValidFrom time.Time `json:"validFrom"`
	ValidTo   time.Time `json:"validTo"`
}

type discountCreated struct {
	ID string `json:"id"`
}

func futureWindow(fromOffset, toOffset time.Duration) (time.Time, time.Time) {
	now := time.Now().UTC()
	return now.Add(fromOffset), now.Add(toOffset)
}

func TestAddDiscount_Lifecycle(t *testing.T) {
	from, to := futureWindow(time.Hour, 48*time.Hour)
	resp := doPost(t, "/api/discounts", discountRequest{
		ProductID: "p1",
		NewPrice:  "80.00",
		Currency:  "USD",
		ValidFrom: from,
		ValidTo:   to,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	created := decodeJSON[discountCreated](t, resp)
	if !uuidPattern.MatchString(created.ID) {
		t.Fatalf("expected UUID discount id, got %q", created.ID)
	}
	if got := resp.Header.Get("Resource-ID"); got != created.ID {
		t.Fatalf("Resource-ID header %q != body id %q", got, created.ID)
	}

	del := doDelete(t, "/api/discounts/"+created.ID)
	defer del.Body.Close()
	if del.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 on delete, got %d", del.StatusCode)
	}

	// Deleting again must report the discount as gone.
	again := doDelete(t, "/api/discounts/"+created.ID)
	defer again.Body.Close()
	if again.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", again.StatusCode)
	}
}

func TestAddDiscount_OverlappingWindowConflicts(t *testing.T) {
	from, to := futureWindow(time.Hour, 48*time.Hour)
	first := doPost(t, "/api/discounts", discountRequest{
		ProductID: "p2",
		NewPrice:  "15.00",
		Currency:  "USD",
		ValidFrom: from,
		ValidTo:   to,
	})
	defer first.Body.Close()
	if first.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", first.StatusCode)
	}

	overlapFrom, overlapTo := futureWindow(24*time.Hour, 72*time.Hour)
	second := doPost(t, "/api/discounts", discountRequest{
		ProductID: "p2",
		NewPrice:  "12.00",
		Currency:  "USD",
		ValidFrom: overlapFrom,
		ValidTo:   overlapTo,
	})
	defer second.Body.Close()
	if second.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for overlapping window, got %d", second.StatusCode)
	}

	// Back-to-back windows share the boundary instant and must not conflict.
	adjacent := doPost(t, "/api/discounts", discountRequest{
		ProductID: "p2",
		NewPrice:  "12.00",
		Currency:  "USD",
		ValidFrom: to,
		ValidTo:   to.Add(24 * time.Hour),
	})
	defer adjacent.Body.Close()
	if adjacent.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 for adjacent window, got %d", adjacent.StatusCode)
	}
}

func TestAddDiscount_WindowInPast(t *testing.T) {
	from, to := futureWindow(-time.Hour, 48*time.Hour)
	resp := doPost(t, "/api/discounts", discountRequest{
		ProductID: "p3",
		NewPrice:  "5.00",
		Currency:  "USD",
		ValidFrom: from,
		ValidTo:   to,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAddDiscount_PriceNotBelowStandard(t *testing.T) {
	from, to := futureWindow(time.Hour, 48*time.Hour)
	resp := doPost(t, "/api/discounts", discountRequest{
		ProductID: "p3",
		NewPrice:  "10000.00",
		Currency:  "USD",
		ValidFrom: from,
		ValidTo:   to,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAddDiscount_UnknownProduct(t *testing.T) {
	from, to := futureWindow(time.Hour, 48*time.Hour)
	resp := doPost(t, "/api/discounts", discountRequest{
		ProductID: "no-such-product",
		NewPrice:  "5.00",
		Currency:  "USD",
		ValidFrom: from,
		ValidTo:   to,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
