// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

package media

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/etoile-yachts/shipshape/internal/logging"
	"github.com/etoile-yachts/shipshape/internal/models"
)

// fakeProber returns canned results per URL.
type fakeProber struct {
	mu      sync.Mutex
	results map[string]*ProbeResult
	errs    map[string]error
	calls   int32
	active  int32
	maxSeen int32
}

func (f *fakeProber) Probe(ctx context.Context, url string) (*ProbeResult, error) {
	atomic.AddInt32(&f.calls, 1)
	cur := atomic.AddInt32(&f.active, 1)
	defer atomic.AddInt32(&f.active, -1)

	f.mu.Lock()
	if cur > f.maxSeen {
		f.maxSeen = cur
	}
	res, err := f.results[url], f.errs[url]
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if res == nil {
		return &ProbeResult{StatusCode: http.StatusOK, ContentType: "image/jpeg"}, nil
	}
	return res, nil
}

func newTestValidator(p Prober) *Validator {
	return NewValidator(p, DefaultValidatorConfig(), logging.Logger())
}

func TestClassificationTotality(t *testing.T) {
	p := &fakeProber{
		results: map[string]*ProbeResult{
			"https://x/ok.jpg":    {StatusCode: 200, ContentType: "image/jpeg"},
			"https://x/gone.jpg":  {StatusCode: 404},
			"https://x/wrong.jpg": {StatusCode: 200, ContentType: "video/mp4"},
		},
		errs: map[string]error{
			"https://x/timeout.jpg": errors.New("context deadline exceeded"),
		},
	}
	v := newTestValidator(p)
	ctx := context.Background()

	tests := []struct {
		name string
		ref  models.MediaReference
		want models.ValidityState
	}{
		{"success is valid", models.MediaReference{Type: models.MediaTypeImage, URL: "https://x/ok.jpg"}, models.ValidityValid},
		{"empty url is missing", models.MediaReference{Type: models.MediaTypeImage, URL: ""}, models.ValidityMissing},
		{"whitespace url is missing", models.MediaReference{Type: models.MediaTypeImage, URL: "  "}, models.ValidityMissing},
		{"404 is invalid", models.MediaReference{Type: models.MediaTypeImage, URL: "https://x/gone.jpg"}, models.ValidityInvalid},
		{"timeout is invalid", models.MediaReference{Type: models.MediaTypeImage, URL: "https://x/timeout.jpg"}, models.ValidityInvalid},
		{"declared image served video is invalid", models.MediaReference{Type: models.MediaTypeImage, URL: "https://x/wrong.jpg"}, models.ValidityInvalid},
		{"relative url is invalid", models.MediaReference{Type: models.MediaTypeImage, URL: "/images/a.jpg"}, models.ValidityInvalid},
		{"malformed url is invalid", models.MediaReference{Type: models.MediaTypeImage, URL: "ht!tp://%"}, models.ValidityInvalid},
		{"ftp scheme is invalid", models.MediaReference{Type: models.MediaTypeImage, URL: "ftp://x/a.jpg"}, models.ValidityInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := v.Validate(ctx, tt.ref)
			if check.State != tt.want {
				t.Errorf("state = %s (%s), want %s", check.State, check.Reason, tt.want)
			}
			// Totality: exactly one of the three states, never empty.
			switch check.State {
			case models.ValidityValid, models.ValidityInvalid, models.ValidityMissing:
			default:
				t.Errorf("unclassified state %q", check.State)
			}
			if check.State != models.ValidityValid && check.Reason == "" {
				t.Error("non-valid classification missing reason")
			}
		})
	}
}

func TestLenientContentType(t *testing.T) {
	p := &fakeProber{
		results: map[string]*ProbeResult{
			"https://x/wrong.jpg": {StatusCode: 200, ContentType: "video/mp4"},
		},
	}
	v := NewValidator(p, ValidatorConfig{ProbeConcurrency: 2, StrictContentType: false}, logging.Logger())

	check := v.Validate(context.Background(), models.MediaReference{Type: models.MediaTypeImage, URL: "https://x/wrong.jpg"})
	if check.State != models.ValidityValid {
		t.Errorf("lenient mode should not enforce content type: %s (%s)", check.State, check.Reason)
	}
}

func TestValidateAllBoundsConcurrencyAndPreservesOrder(t *testing.T) {
	p := &fakeProber{results: map[string]*ProbeResult{}}
	v := NewValidator(p, ValidatorConfig{ProbeConcurrency: 2, StrictContentType: true}, logging.Logger())

	refs := make([]models.MediaReference, 20)
	for i := range refs {
		refs[i] = models.MediaReference{Type: models.MediaTypeImage, URL: "https://x/ok.jpg"}
	}
	refs[7].URL = "" // stays missing, order check

	checks := v.ValidateAll(context.Background(), refs)
	if len(checks) != len(refs) {
		t.Fatalf("len = %d", len(checks))
	}
	if checks[7].State != models.ValidityMissing {
		t.Errorf("order not preserved: checks[7] = %v", checks[7])
	}
	if p.maxSeen > 2 {
		t.Errorf("probe concurrency %d exceeded bound 2", p.maxSeen)
	}
}

func TestHTTPProberHeadWithGetFallback(t *testing.T) {
	var headCalls, getCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			atomic.AddInt32(&headCalls, 1)
			w.WriteHeader(http.StatusMethodNotAllowed)
		case http.MethodGet:
			atomic.AddInt32(&getCalls, 1)
			w.Header().Set("Content-Type", "image/jpeg")
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	p := NewHTTPProber(ProberConfig{ProbeWithGET: true, RequestsPerSecond: 0})
	res, err := p.Probe(context.Background(), srv.URL+"/a.jpg")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if res.StatusCode != http.StatusOK || res.ContentType != "image/jpeg" {
		t.Errorf("res = %+v", res)
	}
	if atomic.LoadInt32(&headCalls) != 1 || atomic.LoadInt32(&getCalls) != 1 {
		t.Errorf("head=%d get=%d, want 1/1", headCalls, getCalls)
	}
}

func TestHTTPProberHeadOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("unexpected method %s", r.Method)
		}
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewHTTPProber(ProberConfig{ProbeWithGET: false})
	res, err := p.Probe(context.Background(), srv.URL+"/a.png")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if res.ContentType != "image/png" {
		t.Errorf("content type = %q", res.ContentType)
	}
}
