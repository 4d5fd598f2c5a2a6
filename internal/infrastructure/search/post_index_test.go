package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frtweb/blog-backend/internal/domain/entity"
)

type recorded struct {
	method string
	path   string
	body   string
}

// fakeES answers like an Elasticsearch 8 node and records requests.
func fakeES(t *testing.T, searchBody string) (*PostIndex, *[]recorded) {
	t.Helper()
	var mu sync.Mutex
	var reqs []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, recorded{method: r.Method, path: r.URL.Path, body: string(b)})
		mu.Unlock()
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/_search") {
			_, _ = io.WriteString(w, searchBody)
			return
		}
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNotFound)
		}
		_, _ = io.WriteString(w, `{"result":"ok"}`)
	}))
	t.Cleanup(srv.Close)

	es, err := NewESClient([]string{srv.URL}, "", "")
	require.NoError(t, err)
	return NewPostIndex(es, "posts"), &reqs
}

func TestPostIndex_Put(t *testing.T) {
	idx, reqs := fakeES(t, "")
	p := &entity.Post{ID: 12, Title: "Hello", Slug: "s", CreatedAt: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)}

	require.NoError(t, idx.Put(context.Background(), p, "Ann"))
	require.Len(t, *reqs, 1)
	assert.Equal(t, "/posts/_doc/12", (*reqs)[0].path)

	var doc Document
	require.NoError(t, json.Unmarshal([]byte((*reqs)[0].body), &doc))
	assert.Equal(t, "Ann", doc.Author)
	assert.Equal(t, "2024-03-05", doc.Date)
}

func TestPostIndex_RemoveIgnoresMissing(t *testing.T) {
	idx, reqs := fakeES(t, "")

	assert.NoError(t, idx.Remove(context.Background(), 3))
	require.Len(t, *reqs, 1)
	assert.Equal(t, http.MethodDelete, (*reqs)[0].method)
}

func TestPostIndex_Search(t *testing.T) {
	idx, reqs := fakeES(t, `{"hits":{"hits":[{"_id":"1","_source":{"id":1,"title":"Robots"}}]}}`)

	docs, err := idx.Search(context.Background(), "robot", 0)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Robots", docs[0].Title)
	assert.Contains(t, (*reqs)[0].body, `"size":10`)
}

func TestPostIndex_DisabledIsNoop(t *testing.T) {
	var idx *PostIndex
	assert.NoError(t, idx.Put(context.Background(), &entity.Post{}, ""))
	assert.NoError(t, idx.Remove(context.Background(), 1))
	docs, err := idx.Search(context.Background(), "x", 5)
	assert.NoError(t, err)
	assert.Empty(t, docs)
}

func TestSearchQueryClampsSize(t *testing.T) {
	assert.Equal(t, 10, SearchQuery("x", 500)["size"])
	assert.Equal(t, 25, SearchQuery("x", 25)["size"])
}
