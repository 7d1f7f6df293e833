package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lpg-distribution/internal/model"
)

func postApplyForm(t *testing.T, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/customers/apply", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("actor", model.Actor{ID: 7, Email: "user@example.com", Role: model.RoleUser})

	h := &CustomerHandler{}
	if err := h.Apply(c); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	return rec
}

func TestApplyRejectsBadCylinderCount(t *testing.T) {
	for _, raw := range []string{"0", "11", "-1", "banana", "1.5"} {
		form := url.Values{
			"agency_id":         {"KABA000001"},
			"name":              {"Asha Rao"},
			"alloted_cylinders": {raw},
		}
		rec := postApplyForm(t, form)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("alloted_cylinders=%q: status = %d, want %d", raw, rec.Code, http.StatusBadRequest)
		}
		if !strings.Contains(rec.Body.String(), "alloted_cylinders") {
			t.Fatalf("alloted_cylinders=%q: body %q does not name the field", raw, rec.Body.String())
		}
	}
}

func TestDocumentErrorStatus(t *testing.T) {
	code, msg := documentErrorStatus(echo.NewHTTPError(http.StatusRequestEntityTooLarge, "id_proof too large"))
	if code != http.StatusRequestEntityTooLarge {
		t.Fatalf("oversized upload: code = %d, want %d", code, http.StatusRequestEntityTooLarge)
	}
	if msg != "id_proof too large" {
		t.Fatalf("oversized upload: message = %q, want the upload message", msg)
	}

	code, msg = documentErrorStatus(errors.New("disk full"))
	if code != http.StatusInternalServerError {
		t.Fatalf("plain error: code = %d, want %d", code, http.StatusInternalServerError)
	}
	if msg != "storing documents failed" {
		t.Fatalf("plain error: message = %q", msg)
	}
}
