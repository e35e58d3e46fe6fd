package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ken/internmatch/pkg/catalog"
	"github.com/ken/internmatch/pkg/embedding"
	"github.com/ken/internmatch/pkg/recommend"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	ctx := context.Background()

	engine, err := embedding.NewEngine(ctx, embedding.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })

	store, err := catalog.Load(ctx, engine, catalog.DefaultRecords())
	require.NoError(t, err)

	svc := recommend.NewService(engine, store)
	return NewRouter(NewHandler(svc, engine.ModelName(), store.Size(), time.Second))
}

func post(router http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/recommend", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRecommendEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := post(router, `{"skills":["machine learning","python"],"interests":["AI"]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var result recommend.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Len(t, result.Recommendations, 3)
	assert.Contains(t, []string{"AI Research Internship", "Data Science Internship"}, result.Recommendations[0].Title)
	assert.NotEmpty(t, result.Recommendations[0].Description)

	_, err := uuid.Parse(w.Header().Get(RequestIDHeader))
	assert.NoError(t, err)
}

func TestRecommendEndpointEmptyArrays(t *testing.T) {
	router := newTestRouter(t)

	w := post(router, `{"skills":[],"interests":[""]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var result recommend.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Len(t, result.Recommendations, 3)
}

func TestRecommendEndpointValidation(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"MissingSkills", `{"interests":["AI"]}`, http.StatusUnprocessableEntity, CodeInvalidInput},
		{"NullInterests", `{"skills":["go"],"interests":null}`, http.StatusUnprocessableEntity, CodeInvalidInput},
		{"NullElement", `{"skills":["go",null],"interests":[]}`, http.StatusUnprocessableEntity, CodeInvalidInput},
		{"WrongType", `{"skills":"go","interests":[]}`, http.StatusUnprocessableEntity, CodeInvalidInput},
		{"NumberElement", `{"skills":[1],"interests":[]}`, http.StatusUnprocessableEntity, CodeInvalidInput},
		{"MalformedJSON", `{"skills":[`, http.StatusBadRequest, CodeInvalidRequest},
		{"EmptyBody", ``, http.StatusBadRequest, CodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(router, tt.body)
			assert.Equal(t, tt.status, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Error)
			assert.NotEmpty(t, resp.Message)
			assert.Equal(t, w.Header().Get(RequestIDHeader), resp.RequestID)
		})
	}
}

type stubRecommender struct {
	err error
}

func (s stubRecommender) Recommend(ctx context.Context, req recommend.Request) (*recommend.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRecommendEndpointErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"EncodeError", &embedding.EncodeError{Index: -1, Cause: errors.New("bad text")}, http.StatusUnprocessableEntity, CodeInvalidInput},
		{"BackendFailure", errors.New("backend down"), http.StatusInternalServerError, CodeInternal},
		{"Timeout", nil, http.StatusGatewayTimeout, CodeTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(NewHandler(stubRecommender{err: tt.err}, "stub", 0, 10*time.Millisecond))
			w := post(router, `{"skills":["go"],"interests":[]}`)
			assert.Equal(t, tt.status, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Error)
			_, err := uuid.Parse(resp.RequestID)
			assert.NoError(t, err)
			assert.Equal(t, w.Header().Get(RequestIDHeader), resp.RequestID)
		})
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "0b7d7a5e-8c0e-4c5a-9f43-3f2b3f1c2a10")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0b7d7a5e-8c0e-4c5a-9f43-3f2b3f1c2a10", w.Header().Get(RequestIDHeader))

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, embedding.DefaultConfig().ModelName, resp.Model)
	assert.Equal(t, 5, resp.CatalogSize)
}

func TestRequestIDReplacesInvalidHeader(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "not a uuid")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	id := w.Header().Get(RequestIDHeader)
	assert.NotEqual(t, "not a uuid", id)
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
}

func TestServerAddr(t *testing.T) {
	s := NewServer("127.0.0.1", 8000, NewHandler(stubRecommender{}, "stub", 0, 0))
	assert.Equal(t, "127.0.0.1:8000", s.Addr())
	assert.NoError(t, s.Shutdown(context.Background()))
}
