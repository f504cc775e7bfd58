package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	k := ObjectKey("../../Photo.JPG")
	assert.True(t, strings.HasSuffix(k, ".jpg"))
	assert.NotContains(t, k, "/")
	assert.NotEqual(t, k, ObjectKey("Photo.JPG"))
	assert.True(t, IsImage("a.PNG"))
	assert.False(t, IsImage("a.exe"))
}

func TestUploadAllowlist(t *testing.T) {
	for _, name := range []string{"a.jpg", "b.WEBP", "brochure.pdf"} {
		assert.True(t, IsUploadable(name), name)
	}
	for _, name := range []string{"x.svg", "x.html", "x.htm", "x.js", "noext", "x.png.html"} {
		assert.False(t, IsUploadable(name), name)
	}
	assert.False(t, IsImage("logo.svg"))
}

func TestDiskStorage_SaveDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskStorage(dir, "http://shop.local/uploads/")
	require.NoError(t, err)
	ctx := context.Background()

	url, err := s.Save(ctx, "curtain.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "http://shop.local/uploads/"))

	path := filepath.Join(dir, filepath.Base(url))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(b))

	require.NoError(t, s.Delete(ctx, url))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, s.Delete(ctx, url), "deleting twice is fine")
	assert.NoError(t, s.Delete(ctx, "https://elsewhere.example/x.png"))
}

func TestCDNStorage(t *testing.T) {
	var deleted string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.Method {
		case http.MethodPost:
			f, hdr, err := r.FormFile("file")
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			b, _ := io.ReadAll(f)
			if string(b) != "img" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			_, _ = io.WriteString(w, `{"url":"https://cdn.example/`+hdr.Filename+`"}`)
		case http.MethodDelete:
			deleted = r.URL.Query().Get("url")
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	s := NewCDNStorage(srv.URL, "key", "https://cdn.example")
	ctx := context.Background()
	url, err := s.Save(ctx, "a.webp", strings.NewReader("img"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://cdn.example/"))
	assert.True(t, strings.HasSuffix(url, ".webp"))

	require.NoError(t, s.Delete(ctx, url))
	assert.Equal(t, url, deleted)

	bad := NewCDNStorage(srv.URL, "wrong", "")
	_, err = bad.Save(ctx, "a.webp", strings.NewReader("img"))
	assert.Error(t, err)
}
