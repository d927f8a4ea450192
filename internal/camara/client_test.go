package camara

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchDeputies(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		assert.Equal(t, "/deputados", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"dados":[
			{"id":204554,"nome":" Abílio Brunini ","siglaPartido":"PL","siglaUf":"MT","uri":"https://x/204554","uriPartido":"https://x/p/37906","urlFoto":"https://x/204554.jpg"},
			{"id":"220593","nome":"Acácio Favacho","siglaPartido":"MDB","siglaUf":"AP"}
		],"links":[]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, 1)
	deputies, err := client.FetchDeputies(context.Background())
	require.NoError(t, err)
	require.Len(t, deputies, 2)

	assert.Contains(t, gotQuery, "itens=1000")
	assert.Contains(t, gotQuery, "ordem=ASC")
	assert.Contains(t, gotQuery, "ordenarPor=nome")

	assert.Equal(t, int64(204554), deputies[0].ID)
	assert.Equal(t, "Abílio Brunini", deputies[0].Nome)
	assert.Equal(t, "MT", deputies[0].SiglaUF)

	assert.Equal(t, int64(220593), deputies[1].ID)
	assert.Equal(t, "", deputies[1].URI)
	assert.Equal(t, "", deputies[1].URLFoto)
}

func TestFetchDeputies_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"dados":[{"id":1,"nome":"A","siglaPartido":"PT","siglaUf":"SP"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, 3)
	client.retry.InitialDelay = time.Millisecond

	deputies, err := client.FetchDeputies(context.Background())
	require.NoError(t, err)
	assert.Len(t, deputies, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchDeputies_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, 3)
	client.retry.InitialDelay = time.Millisecond

	_, err := client.FetchDeputies(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnexpectedStatus))
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchDeputies_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>manutenção</html>`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, 3)
	_, err := client.FetchDeputies(context.Background())
	assert.Error(t, err)
}

func TestNormalize_MissingColumns(t *testing.T) {
	got := normalize([]map[string]any{{"nome": "Sem Partido"}})
	require.Len(t, got, 1)
	assert.Equal(t, "Sem Partido", got[0].Nome)
	assert.Equal(t, "", got[0].SiglaPartido)
	assert.Equal(t, int64(0), got[0].ID)
}
