//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestCheckoutFlowE2E(t *testing.T) {
	baseURL := "http://localhost:8080"
	reference := "E2E/" + time.Now().Format("20060102150405")

	// Create a draft payment
	payload := map[string]interface{}{
		"reference": reference,
		"amount":    "20.00",
		"currency":  "EUR",
		"partner": map[string]interface{}{
			"id":         42,
			"first_name": "Jean",
			"last_name":  "Dupont",
			"email":      "jean.dupont@example.com",
		},
	}

	jsonData, _ := json.Marshal(payload)
	resp, err := http.Post(baseURL+"/api/v1/payments", "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		t.Fatalf("Failed to create payment: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", resp.StatusCode)
	}

	var result struct {
		ActionURL string              `json:"action_url"`
		Fields    map[string][]string `json:"fields"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if result.ActionURL == "" {
		t.Error("Response carries no form action URL")
	}
	if len(result.Fields["signature"]) == 0 || result.Fields["signature"][0] == "" {
		t.Error("Payment form is unsigned")
	}
	if len(result.Fields["vads_amount"]) == 0 || result.Fields["vads_amount"][0] != "2000" {
		t.Errorf("vads_amount = %v, want 2000", result.Fields["vads_amount"])
	}

	// The return route must redirect even for a callback it rejects
	form := url.Values{}
	form.Set("vads_order_id", strings.ReplaceAll(reference, "/", " "))
	form.Set("vads_trans_status", "AUTHORISED")
	form.Set("signature", "invalid")

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp2, err := client.PostForm(baseURL+"/payment/payzen/return", form)
	if err != nil {
		t.Fatalf("Failed to post callback: %v", err)
	}
	defer resp2.Body.Close()

	if resp2.StatusCode != http.StatusSeeOther {
		t.Errorf("Expected redirect status 303, got %d", resp2.StatusCode)
	}
}
