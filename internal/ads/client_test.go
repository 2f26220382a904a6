package ads_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infralogger "github.com/jonesrussell/sitelink-report/infrastructure/logger"
	"github.com/jonesrussell/sitelink-report/internal/ads"
)

type capturedRequest struct {
	path    string
	query   string
	headers http.Header
}

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *capturedRequest) {
	t.Helper()

	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		captured.headers = r.Header.Clone()

		raw, _ := io.ReadAll(r.Body)
		var req struct {
			Query string `json:"query"`
		}
		_ = json.Unmarshal(raw, &req)
		captured.query = req.Query

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	return srv, captured
}

func newClient(t *testing.T, baseURL string) *ads.Client {
	t.Helper()

	return ads.NewClient(ads.Config{
		BaseURL:         baseURL,
		APIVersion:      "v17",
		DeveloperToken:  "dev-token",
		AccessToken:     "access-token",
		LoginCustomerID: "111-222-3333",
	}, nil, infralogger.NewNop())
}

const twoBatchStream = `[
  {"results":[
    {"asset":{"id":"7","finalUrls":["https://a","https://b"],"sitelinkAsset":{"linkText":"Shop"}}},
    {"asset":{"id":"9","finalUrls":["https://c"]}}
  ],"fieldMask":"asset.id","requestId":"r1"},
  {"results":[
    {"asset":{"id":"11","finalUrls":[],"sitelinkAsset":{"linkText":"Contact"}}}
  ],"requestId":"r1"}
]`

func TestClient_Search_StreamsAllBatches(t *testing.T) {
	srv, captured := newTestServer(t, http.StatusOK, twoBatchStream)
	client := newClient(t, srv.URL)

	rows, err := client.Search(t.Context(), "444-555-6666", "  SELECT asset.id FROM asset  ")
	require.NoError(t, err)
	defer rows.Close()

	var ids []string
	for rows.Next() {
		ids = append(ids, rows.Row().String("asset.id"))
	}
	require.NoError(t, rows.Err())

	assert.Equal(t, []string{"7", "9", "11"}, ids)
	assert.Equal(t, "/v17/customers/4445556666/googleAds:searchStream", captured.path)
	assert.Equal(t, "SELECT asset.id FROM asset", captured.query)
	assert.Equal(t, "Bearer access-token", captured.headers.Get("Authorization"))
	assert.Equal(t, "dev-token", captured.headers.Get("developer-token"))
	assert.Equal(t, "1112223333", captured.headers.Get("login-customer-id"))
}

func TestClient_Search_EmptyStream(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `[]`)
	client := newClient(t, srv.URL)

	rows, err := client.Search(t.Context(), "1", "SELECT asset.id FROM asset")
	require.NoError(t, err)
	defer rows.Close()

	assert.False(t, rows.Next())
	assert.NoError(t, rows.Err())
}

func TestClient_Search_HTTPError(t *testing.T) {
	body := `[{"error":{"code":400,"message":"Query error","status":"INVALID_ARGUMENT",
		"details":[{"@type":"type.googleapis.com/google.ads.googleads.v17.errors.GoogleAdsFailure","requestId":"req-9"}]}}]`
	srv, _ := newTestServer(t, http.StatusBadRequest, body)
	client := newClient(t, srv.URL)

	rows, err := client.Search(t.Context(), "1", "SELECT bogus FROM asset")
	require.Error(t, err)
	assert.Nil(t, rows)

	var apiErr *ads.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "INVALID_ARGUMENT", apiErr.Status)
	assert.Equal(t, "Query error", apiErr.Message)
	assert.Equal(t, "req-9", apiErr.RequestID)
}

func TestClient_Search_PlainErrorBodyTruncatedOnRuneBoundary(t *testing.T) {
	body := "a" + strings.Repeat("é", 400)
	srv, _ := newTestServer(t, http.StatusBadGateway, body)
	client := newClient(t, srv.URL)

	_, err := client.Search(t.Context(), "1", "SELECT asset.id FROM asset")

	var apiErr *ads.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.True(t, utf8.ValidString(apiErr.Message), "message %q", apiErr.Message)
	assert.True(t, strings.HasSuffix(apiErr.Message, "..."))
	assert.Equal(t, "a"+strings.Repeat("é", 255)+"...", apiErr.Message)
}

func TestClient_Search_ErrorInsideStream(t *testing.T) {
	body := `[{"results":[{"asset":{"id":"1"}}]},{"error":{"code":500,"message":"internal","status":"INTERNAL"}}]`
	srv, _ := newTestServer(t, http.StatusOK, body)
	client := newClient(t, srv.URL)

	rows, err := client.Search(t.Context(), "1", "SELECT asset.id FROM asset")
	require.NoError(t, err)
	defer rows.Close()

	require.True(t, rows.Next())
	assert.False(t, rows.Next())

	var apiErr *ads.APIError
	require.True(t, errors.As(rows.Err(), &apiErr))
	assert.Equal(t, "INTERNAL", apiErr.Status)
}

func TestClient_Search_MalformedStream(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `{"results":[]}`)
	client := newClient(t, srv.URL)

	rows, err := client.Search(t.Context(), "1", "SELECT asset.id FROM asset")
	require.NoError(t, err)
	defer rows.Close()

	assert.False(t, rows.Next())
	assert.Error(t, rows.Err())
}

func TestClient_Search_RequiresCustomerID(t *testing.T) {
	client := newClient(t, "http://127.0.0.1:0")

	_, err := client.Search(t.Context(), " ", "SELECT asset.id FROM asset")
	assert.ErrorIs(t, err, ads.ErrNoCustomerID)
}

func TestRows_NextAfterClose(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, twoBatchStream)
	client := newClient(t, srv.URL)

	rows, err := client.Search(t.Context(), "1", "SELECT asset.id FROM asset")
	require.NoError(t, err)
	require.True(t, rows.Next())
	require.NoError(t, rows.Close())

	assert.False(t, rows.Next())
	assert.ErrorIs(t, rows.Err(), ads.ErrRowsClosed)
	assert.NoError(t, rows.Close(), "second Close is a no-op")
}

func TestClient_ListAccounts(t *testing.T) {
	body := `[{"results":[
		{"customerClient":{"id":"100","descriptiveName":"Alpha","manager":false,"status":"ENABLED"}},
		{"customerClient":{"id":"200","descriptiveName":"Beta","manager":false,"status":"ENABLED"}}
	]}]`
	srv, captured := newTestServer(t, http.StatusOK, body)
	client := newClient(t, srv.URL)

	accounts, err := client.ListAccounts(t.Context())
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	assert.Equal(t, "100", accounts[0].ID)
	assert.Equal(t, "Alpha", accounts[0].Name)
	assert.Equal(t, "Beta", accounts[1].Name)
	assert.Equal(t, "/v17/customers/1112223333/googleAds:searchStream", captured.path)
	assert.Contains(t, captured.query, "FROM customer_client")
}

func TestClient_ListAccounts_RequiresLoginCustomer(t *testing.T) {
	client := ads.NewClient(ads.Config{BaseURL: "http://127.0.0.1:0"}, nil, infralogger.NewNop())

	_, err := client.ListAccounts(t.Context())
	assert.ErrorIs(t, err, ads.ErrNoManagerAccount)
}
