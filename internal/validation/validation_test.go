package validation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func validAddress() AddressRequest {
	return AddressRequest{
		FullName: "Ana Lima",
		Phone:    "+1 (555) 010-2000",
		Country:  "US",
		City:     "Austin",
		Street:   "1 Main St",
	}
}

func TestAddressRequest_Valid(t *testing.T) {
	v := New()
	if err := v.Struct(validAddress()); err != nil {
		t.Fatalf("expected valid, got error: %v", err)
	}
}

func TestAddressRequest_MissingFields(t *testing.T) {
	v := New()
	req := validAddress()
	req.FullName = ""
	req.Phone = "call me"

	err := v.Struct(req)
	if err == nil {
		t.Fatal("expected validation errors, got nil")
	}
	fields := FieldErrors(err)
	if fields["full_name"] != "required" {
		t.Fatalf("expected full_name required, got %v", fields)
	}
	if fields["phone"] != "phone" {
		t.Fatalf("expected phone rule failure, got %v", fields)
	}
}

func TestProductUpdateRequest_Money(t *testing.T) {
	v := New()
	ok := decimal.RequireFromString("12.50")
	if err := v.Struct(ProductUpdateRequest{UnitPrice: &ok}); err != nil {
		t.Fatalf("expected valid price, got %v", err)
	}
	if err := v.Struct(ProductUpdateRequest{}); err != nil {
		t.Fatalf("nil price should be skipped, got %v", err)
	}

	neg := decimal.RequireFromString("-1")
	if err := v.Struct(ProductUpdateRequest{UnitPrice: &neg}); err == nil {
		t.Fatal("expected negative price to fail")
	}
	fine := decimal.RequireFromString("1.999")
	if err := v.Struct(ProductUpdateRequest{UnitPrice: &fine}); err == nil {
		t.Fatal("expected three-decimal price to fail")
	}
}

func TestParseQuantity(t *testing.T) {
	cases := map[string]int{
		"":                      1,
		"3":                     3,
		" 4 ":                   4,
		"0":                     1,
		"-2":                    1,
		"abc":                   1,
		"2.5":                   1,
		"999":                   999,
		"1000":                  MaxQuantity,
		"9223372036854775807":   MaxQuantity,
		"99999999999999999999":  MaxQuantity,
		"-99999999999999999999": 1,
	}
	for in, want := range cases {
		if got := ParseQuantity(in); got != want {
			t.Errorf("ParseQuantity(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestBindAndValidate_FormBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	v := New()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body := "full_name=Ana&phone=5550100&country=US&city=Austin"
	c.Request = httptest.NewRequest(http.MethodPost, "/checkout/address", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var req AddressRequest
	if err := BindAndValidate(c, &req, v); err == nil {
		t.Fatal("expected missing street to fail")
	}
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"street":"required"`) {
		t.Fatalf("expected street field error, got %s", w.Body.String())
	}
	if req.FullName != "Ana" {
		t.Fatalf("form fields not bound: %+v", req)
	}
}
