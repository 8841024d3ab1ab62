package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/masomo-resources/apps/api/echo"
	"github.com/trezcool/masomo-resources/core"
	"github.com/trezcool/masomo-resources/storage"
	testutil "github.com/trezcool/masomo-resources/tests"
)

var (
	pdfContent   = []byte("%PDF-1.4 syllabus")
	notesContent = []byte("week 1: introduction")
)

func Test_resourceApi_retrieve(t *testing.T) {
	app, store := setup(t)
	testutil.SeedStore(t, store, map[string][]byte{
		"syllabus.pdf":     pdfContent,
		"course notes.txt": notesContent,
	})

	tests := []struct {
		name            string
		method          string
		path            string
		wantCode        int
		wantBody        []byte
		wantType        string
		wantDisposition string
		wantLength      int
	}{
		{
			name: "get pdf", method: http.MethodGet, path: "/resources/syllabus.pdf", wantCode: http.StatusOK,
			wantBody: pdfContent, wantType: "application/pdf",
			wantDisposition: "inline; filename=syllabus.pdf", wantLength: len(pdfContent),
		},
		{
			name: "get escaped name", method: http.MethodGet, path: "/resources/course%20notes.txt", wantCode: http.StatusOK,
			wantBody: notesContent, wantType: "text/plain; charset=utf-8",
			wantDisposition: `inline; filename="course notes.txt"`, wantLength: len(notesContent),
		},
		{
			name: "versioned route", method: http.MethodGet, path: "/v1/resources/syllabus.pdf", wantCode: http.StatusOK,
			wantBody: pdfContent, wantType: "application/pdf",
			wantDisposition: "inline; filename=syllabus.pdf", wantLength: len(pdfContent),
		},
		{
			name: "head", method: http.MethodHead, path: "/resources/syllabus.pdf", wantCode: http.StatusOK,
			wantBody: []byte{}, wantType: "application/pdf",
			wantDisposition: "inline; filename=syllabus.pdf", wantLength: len(pdfContent),
		},
		{name: "get missing", method: http.MethodGet, path: "/resources/missing.pdf", wantCode: http.StatusNotFound},
		{name: "head missing", method: http.MethodHead, path: "/resources/missing.pdf", wantCode: http.StatusNotFound, wantBody: []byte{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path)
			app.ServeHTTP(rec, req)

			require.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != nil {
				assert.Equal(t, tt.wantBody, rec.Body.Bytes())
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			assert.Equal(t, tt.wantType, rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantDisposition, rec.Header().Get("Content-Disposition"))
			assert.Equal(t, strconv.Itoa(tt.wantLength), rec.Header().Get("Content-Length"))
		})
	}

	t.Run("not found message", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/resources/missing.pdf")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Error: `resource "missing.pdf" not found`}),
		}, rec)
	})
}

func Test_resourceApi_query(t *testing.T) {
	app, store := setup(t)
	infos := testutil.SeedStore(t, store, map[string][]byte{
		"b.txt": []byte("bb"),
		"a.txt": []byte("aaa"),
		"c.txt": []byte("c"),
	})
	token := adminToken(t, app)

	list := func(names ...string) []byte {
		res := make([]storage.Info, 0, len(names))
		for _, n := range names {
			res = append(res, infos[n])
		}
		return marshallObj(t, res)
	}

	tests := []httpTest{
		{name: "auth required", path: "/resources", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{
			name: "admin required", path: "/resources", token: getToken(t, app, false, RoleResourceManager),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "role required", path: "/resources", token: getToken(t, app, true),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "list", path: "/resources", token: token, wantCode: http.StatusOK, wantData: list("a.txt", "b.txt", "c.txt")},
		{name: "ordering=-name", path: "/resources?ordering=-name", token: token, wantCode: http.StatusOK, wantData: list("c.txt", "b.txt", "a.txt")},
		{name: "ordering=size", path: "/resources?ordering=size", token: token, wantCode: http.StatusOK, wantData: list("c.txt", "b.txt", "a.txt")},
		{name: "ordering=-size", path: "/resources?ordering=-size", token: token, wantCode: http.StatusOK, wantData: list("a.txt", "b.txt", "c.txt")},
		{name: "unknown ordering ignored", path: "/resources?ordering=lol", token: token, wantCode: http.StatusOK, wantData: list("a.txt", "b.txt", "c.txt")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_resourceApi_upload(t *testing.T) {
	app, store := setup(t, func(conf *core.Config) {
		conf.Server.MaxUploadSize = 16
	})
	token := adminToken(t, app)

	tests := []httpTest{
		{name: "auth required", path: "/resources/a.txt", body: []byte("a"), wantCode: http.StatusUnauthorized},
		{name: "admin required", path: "/resources/a.txt", body: []byte("a"), token: getToken(t, app, false), wantCode: http.StatusForbidden},
		{
			name: "path separator", path: "/resources/a%2Fb.txt", body: []byte("a"), token: token, wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"name": "must be a plain file name (no path separators)"}),
		},
		{
			name: "too large", path: "/resources/big.bin", body: bytes.Repeat([]byte("x"), 17), token: token,
			wantCode: http.StatusRequestEntityTooLarge, wantData: marshallObj(t, httpErr{Error: "resource too large"}),
		},
		{name: "create", path: "/resources/a.txt", body: []byte("hello"), token: token, wantCode: http.StatusCreated},
		{name: "replace", path: "/resources/a.txt", body: []byte("hello again"), token: token, wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPut, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode != http.StatusCreated {
				return
			}
			var info storage.Info
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
			assert.Equal(t, "a.txt", info.Name)
			assert.EqualValues(t, len(tt.body), info.Size)
			assert.Equal(t, "text/plain; charset=utf-8", info.MimeType)

			stored, err := store.Stat(context.Background(), "a.txt")
			require.NoError(t, err)
			assert.EqualValues(t, len(tt.body), stored.Size)
		})
	}

	_, err := store.Stat(context.Background(), "big.bin")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func Test_resourceApi_destroy(t *testing.T) {
	app, store := setup(t)
	testutil.SeedStore(t, store, map[string][]byte{"old.pdf": pdfContent})
	token := adminToken(t, app)

	tests := []httpTest{
		{name: "auth required", path: "/resources/old.pdf", wantCode: http.StatusUnauthorized},
		{name: "delete", path: "/resources/old.pdf", token: token, wantCode: http.StatusNoContent},
		{
			name: "delete again", path: "/resources/old.pdf", token: token, wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Error: `resource "old.pdf" not found`}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodDelete, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	req, rec := newRequest(http.MethodGet, "/resources/old.pdf")
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
