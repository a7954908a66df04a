package predict

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	apperrors "github.com/agbru/nightrate/internal/errors"
	"github.com/agbru/nightrate/internal/listing"
)

// formServer answers like the HTML prediction page: the result is rendered
// into the page, and errors come back with status 200.
func formServer(t *testing.T, page string, got *url.Values) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		if got != nil {
			*got = r.PostForm
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, page)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPredict_FormEncoding(t *testing.T) {
	t.Parallel()

	l, err := listing.FromForm(map[string]string{
		"bathrooms":          "1.5",
		"cleaning_fee":       "0",
		"host_response_rate": "95",
		"neighbourhood":      "",
	})
	if err != nil {
		t.Fatalf("FromForm: %v", err)
	}

	var form url.Values
	srv := formServer(t, `<html><body><div class="result">$4500.0</div></body></html>`, &form)

	price, err := newTestClient(srv.URL, WithEncoding(Form)).Predict(context.Background(), l.Request())
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if price != 4500 {
		t.Errorf("price = %v, want 4500", price)
	}

	want := map[string]string{
		"bathrooms":          "1.5",
		"cleaning_fee":       "0",
		"instant_bookable":   "1",
		"host_response_rate": "95",
		"property_type":      "Apartment",
		"accommodates":       "1",
	}
	for k, v := range want {
		if got := form.Get(k); got != v {
			t.Errorf("form[%s] = %q, want %q", k, got, v)
		}
	}
	if _, ok := form["neighbourhood"]; !ok {
		t.Error("an empty neighbourhood should still be posted")
	}
	if len(form) != len(listing.Fields) {
		t.Errorf("posted %d fields, want %d", len(form), len(listing.Fields))
	}
}

func TestPredict_FormResultPage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		page      string
		wantPrice float64
		wantErr   string
	}{
		{"grouped price", `<p>$1,234.56</p>`, 1234.56, ""},
		{"spaced price", `<h2>Estimated: $ 88</h2>`, 88, ""},
		{"prediction error", `<p>Error: Error during prediction: bad input &amp; more</p>`, 0, "Error during prediction: bad input & more"},
		{"model missing", `<p>Error: Model or preprocessor not loaded.</p>`, 0, "Model or preprocessor not loaded."},
		{"blank result", `<html><body><form></form></body></html>`, 0, "carries no price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := formServer(t, tt.page, nil)

			price, err := newTestClient(srv.URL, WithEncoding(Form), WithRetries(0)).Predict(context.Background(), sampleRequest())
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Predict: %v", err)
				}
				if price.Float64() != tt.wantPrice {
					t.Errorf("price = %v, want %v", price, tt.wantPrice)
				}
				return
			}
			var se apperrors.ServiceError
			if !errors.As(err, &se) || se.Kind != apperrors.KindServer {
				t.Fatalf("err = %v, want server ServiceError", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestFormValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   any
		want string
	}{
		{true, "1"},
		{false, "0"},
		{"95%", "95"},
		{"a%", "a%"},
		{"Entire home/apt", "Entire home/apt"},
		{2, "2"},
		{1.5, "1.5"},
		{float32(0.25), "0.25"},
	}
	for _, tt := range tests {
		if got := formValue(tt.in); got != tt.want {
			t.Errorf("formValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseEncoding(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Encoding{"": JSON, "json": JSON, "FORM": Form} {
		got, err := ParseEncoding(in)
		if err != nil || got != want {
			t.Errorf("ParseEncoding(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseEncoding("xml"); err == nil {
		t.Error("ParseEncoding(xml) should fail")
	}
}
