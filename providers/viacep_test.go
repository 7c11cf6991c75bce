package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViaCEPLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ws/01310930/json/", r.URL.Path)
		w.Write([]byte(`{"cep":"01310-930","logradouro":"Avenida Paulista",
			"bairro":"Bela Vista","localidade":"São Paulo","uf":"SP"}`))
	}))
	defer srv.Close()

	client := NewViaCEPClient(srv.URL)
	addr, err := client.Lookup(context.Background(), "01310-930")
	require.NoError(t, err)

	assert.Equal(t, "01310-930", addr.CEP)
	assert.Equal(t, "Avenida Paulista", addr.Street)
	assert.Equal(t, "Bela Vista", addr.Neighborhood)
	assert.Equal(t, "São Paulo", addr.City)
	assert.Equal(t, "SP", addr.UF)
}

func TestViaCEPLookupNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"erro": true}`))
	}))
	defer srv.Close()

	client := NewViaCEPClient(srv.URL)
	_, err := client.Lookup(context.Background(), "99999999")
	assert.ErrorIs(t, err, ErrCEPNotFound)
}

func TestViaCEPLookupRejectsShortCode(t *testing.T) {
	client := NewViaCEPClient("http://viacep.invalid")
	_, err := client.Lookup(context.Background(), "0131")
	assert.Error(t, err)
}
