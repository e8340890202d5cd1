package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/cirestech/usermgmt/internal/core/domain"
	"github.com/cirestech/usermgmt/internal/core/ports"
)

const importBatch = `[
	{"username":"a","email":"a@x.io","password":"secret","role":{"name":"ROLE_ADMIN"},"birthDate":"1990-01-02"},
	{"username":"b","email":"b@x.io","password":"secret","role":"user","enabled":false}
]`

func checkCandidates(t *testing.T, got []ports.ImportCandidate) {
	t.Helper()
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].Role != "ROLE_ADMIN" || got[0].Profile.BirthDate == nil {
		t.Fatalf("unexpected first candidate: %+v", got[0])
	}
	if got[1].Role != "user" || got[1].Enabled == nil || *got[1].Enabled {
		t.Fatalf("unexpected second candidate: %+v", got[1])
	}
}

func stubImport(t *testing.T) *stubImportService {
	return &stubImportService{
		importFn: func(ctx context.Context, c []ports.ImportCandidate) ports.ImportResult {
			checkCandidates(t, c)
			return ports.ImportResult{Total: 2, Accepted: 1, Rejected: 1}
		},
	}
}

func decodeImport(t *testing.T, rec *httptest.ResponseRecorder) importResponse {
	t.Helper()
	var resp importResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return resp
}

func TestImportHandler_JSONBody(t *testing.T) {
	e := newEcho()
	c, rec := newRequest(e, http.MethodPost, "/api/users/batch", strings.NewReader(importBatch), adminClaims)

	if err := NewImportHandler(stubImport(t)).Import(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if resp := decodeImport(t, rec); resp != (importResponse{TotalRecords: 2, SuccessfulImports: 1, FailedImports: 1}) {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestImportHandler_MultipartFile(t *testing.T) {
	e := newEcho()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "users.json")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	fw.Write([]byte(importBatch))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/users/batch", &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := NewImportHandler(stubImport(t)).Import(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if resp := decodeImport(t, rec); resp.TotalRecords != 2 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestImportHandler_MultipartWithoutFile(t *testing.T) {
	e := newEcho()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("other", "x")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/users/batch", &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	c := e.NewContext(req, httptest.NewRecorder())

	if err := NewImportHandler(&stubImportService{}).Import(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestImportHandler_NotAnArray(t *testing.T) {
	e := newEcho()
	c, _ := newRequest(e, http.MethodPost, "/api/users/batch", strings.NewReader(`{"username":"a"}`), adminClaims)

	var he *echo.HTTPError
	if err := NewImportHandler(&stubImportService{}).Import(c); !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestImportRole_Unmarshal(t *testing.T) {
	cases := map[string]importRole{
		`"ROLE_ADMIN"`:         "ROLE_ADMIN",
		`{"name":"ROLE_USER"}`: "ROLE_USER",
		`null`:                 "",
	}
	for in, want := range cases {
		var r importRole
		if err := json.Unmarshal([]byte(in), &r); err != nil {
			t.Fatalf("Unmarshal(%s): %v", in, err)
		}
		if r != want {
			t.Fatalf("Unmarshal(%s) = %q, want %q", in, r, want)
		}
	}
	var r importRole
	if err := json.Unmarshal([]byte(`42`), &r); err == nil {
		t.Fatalf("expected error for a number")
	}
}
