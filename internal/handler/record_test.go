package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/blockfactory/internal/domain"
	"github.com/pkordes/blockfactory/internal/handler"
)

// ---- mock RecordServicer ---------------------------------------------------

type mockRecordServicer struct {
	create     func(ctx context.Context, name string, content domain.Content) (*domain.TaggedRecord, error)
	get        func(ctx context.Context, name string) (*domain.TaggedRecord, error)
	list       func(ctx context.Context, p domain.PaginationParams) (domain.Page[*domain.TaggedRecord], error)
	delete     func(ctx context.Context, name string) error
	setContent func(ctx context.Context, name string, content domain.Content) (*domain.TaggedRecord, error)
	export     func(ctx context.Context, name string) (domain.Content, error)
	addTag     func(ctx context.Context, name, tagID string) (*domain.TaggedRecord, error)
	removeTag  func(ctx context.Context, name, tagID string) (*domain.TaggedRecord, error)
	hasTag     func(ctx context.Context, name, tagID string) (bool, error)
	listTags   func(ctx context.Context, name string) ([]string, error)
}

func (m *mockRecordServicer) Create(ctx context.Context, name string, content domain.Content) (*domain.TaggedRecord, error) {
	return m.create(ctx, name, content)
}
func (m *mockRecordServicer) Get(ctx context.Context, name string) (*domain.TaggedRecord, error) {
	return m.get(ctx, name)
}
func (m *mockRecordServicer) List(ctx context.Context, p domain.PaginationParams) (domain.Page[*domain.TaggedRecord], error) {
	return m.list(ctx, p)
}
func (m *mockRecordServicer) Delete(ctx context.Context, name string) error {
	return m.delete(ctx, name)
}
func (m *mockRecordServicer) SetContent(ctx context.Context, name string, content domain.Content) (*domain.TaggedRecord, error) {
	return m.setContent(ctx, name, content)
}
func (m *mockRecordServicer) Export(ctx context.Context, name string) (domain.Content, error) {
	return m.export(ctx, name)
}
func (m *mockRecordServicer) AddTag(ctx context.Context, name, tagID string) (*domain.TaggedRecord, error) {
	return m.addTag(ctx, name, tagID)
}
func (m *mockRecordServicer) RemoveTag(ctx context.Context, name, tagID string) (*domain.TaggedRecord, error) {
	return m.removeTag(ctx, name, tagID)
}
func (m *mockRecordServicer) HasTag(ctx context.Context, name, tagID string) (bool, error) {
	return m.hasTag(ctx, name, tagID)
}
func (m *mockRecordServicer) ListTags(ctx context.Context, name string) ([]string, error) {
	return m.listTags(ctx, name)
}

// compile-time check: mockRecordServicer must satisfy handler.RecordServicer.
var _ handler.RecordServicer = (*mockRecordServicer)(nil)

// ---- helpers ---------------------------------------------------------------

func newRecordHTTPHandler(svc handler.RecordServicer) http.Handler {
	return handler.NewServer(svc, nil).Routes()
}

func recordFixture(name string, tags ...string) *domain.TaggedRecord {
	now := time.Now().UTC()
	return domain.RestoreTaggedRecord(uuid.New(), name, domain.Content{"blocks": []any{}}, tags, now, now)
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var body handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

// ---- POST /records ---------------------------------------------------------

func TestCreateRecord_201(t *testing.T) {
	var capturedName string
	var capturedContent domain.Content
	svc := &mockRecordServicer{
		create: func(_ context.Context, name string, content domain.Content) (*domain.TaggedRecord, error) {
			capturedName, capturedContent = name, content
			return recordFixture(name), nil
		},
	}

	rec := serve(newRecordHTTPHandler(svc), http.MethodPost, "/records", `{"name":"ws1","content":{"blocks":[]}}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "ws1", capturedName)
	assert.Equal(t, domain.Content{"blocks": []any{}}, capturedContent)

	var body handler.RecordResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ws1", body.Name)
	assert.Equal(t, []string{}, body.Tags)
}

func TestCreateRecord_400_MalformedBody(t *testing.T) {
	rec := serve(newRecordHTTPHandler(&mockRecordServicer{}), http.MethodPost, "/records", `{not json`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateRecord_409_Duplicate(t *testing.T) {
	svc := &mockRecordServicer{
		create: func(_ context.Context, _ string, _ domain.Content) (*domain.TaggedRecord, error) {
			return nil, fmt.Errorf("service.RecordService.Create: %w", fmt.Errorf("%w: name already exists", domain.ErrConflict))
		},
	}

	rec := serve(newRecordHTTPHandler(svc), http.MethodPost, "/records", `{"name":"ws1"}`)

	require.Equal(t, http.StatusConflict, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "conflict", body.Error.Code)
	assert.Equal(t, "name already exists", body.Error.Message)
}

func TestCreateRecord_422_EmptyName(t *testing.T) {
	svc := &mockRecordServicer{
		create: func(_ context.Context, _ string, _ domain.Content) (*domain.TaggedRecord, error) {
			return nil, fmt.Errorf("service.RecordService.Create: %w: name is required", domain.ErrValidation)
		},
	}

	rec := serve(newRecordHTTPHandler(svc), http.MethodPost, "/records", `{"name":""}`)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "validation_error", body.Error.Code)
	assert.Equal(t, "name is required", body.Error.Message)
}

// ---- GET /records ----------------------------------------------------------

func TestListRecords_200_WithPagination(t *testing.T) {
	var captured domain.PaginationParams
	svc := &mockRecordServicer{
		list: func(_ context.Context, p domain.PaginationParams) (domain.Page[*domain.TaggedRecord], error) {
			captured = p
			return domain.Page[*domain.TaggedRecord]{
				Items:            []*domain.TaggedRecord{recordFixture("ws1")},
				Total:            21,
				PaginationParams: p,
			}, nil
		},
	}

	rec := serve(newRecordHTTPHandler(svc), http.MethodGet, "/records?page=2&limit=10", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.PaginationParams{Page: 2, Limit: 10}, captured)

	var body handler.RecordListResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Len(t, body.Data, 1)
	assert.Equal(t, int64(21), body.Pagination.Total)
	assert.Equal(t, int64(3), body.Pagination.TotalPages)
}

func TestListRecords_400_BadPage(t *testing.T) {
	rec := serve(newRecordHTTPHandler(&mockRecordServicer{}), http.MethodGet, "/records?page=abc", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ---- GET / DELETE /records/{name} ------------------------------------------

func TestGetRecord_200(t *testing.T) {
	svc := &mockRecordServicer{
		get: func(_ context.Context, name string) (*domain.TaggedRecord, error) {
			return recordFixture(name, "shadow-1"), nil
		},
	}

	rec := serve(newRecordHTTPHandler(svc), http.MethodGet, "/records/ws1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body handler.RecordResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ws1", body.Name)
	assert.Equal(t, []string{"shadow-1"}, body.Tags)
}

func TestGetRecord_DecodesEscapedName(t *testing.T) {
	var captured string
	svc := &mockRecordServicer{
		get: func(_ context.Context, name string) (*domain.TaggedRecord, error) {
			captured = name
			return recordFixture(name), nil
		},
	}

	rec := serve(newRecordHTTPHandler(svc), http.MethodGet, "/records/my%20workspace", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "my workspace", captured)
}

func TestRecordRoutes_DecodeNameOnce(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"escaped percent", "/records/%2541", "%41"},
		{"trailing percent", "/records/100%25", "100%"},
		{"percent with slash", "/records/a%25b%2Fc", "a%b/c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotName, deletedName string
			svc := &mockRecordServicer{
				get: func(_ context.Context, name string) (*domain.TaggedRecord, error) {
					gotName = name
					return recordFixture(name), nil
				},
				delete: func(_ context.Context, name string) error {
					deletedName = name
					return nil
				},
			}
			h := newRecordHTTPHandler(svc)

			getRec := serve(h, http.MethodGet, tt.target, "")
			delRec := serve(h, http.MethodDelete, tt.target, "")

			require.Equal(t, http.StatusOK, getRec.Code)
			require.Equal(t, http.StatusNoContent, delRec.Code)
			assert.Equal(t, tt.want, gotName)
			assert.Equal(t, tt.want, deletedName)
		})
	}
}

func TestGetRecord_404(t *testing.T) {
	svc := &mockRecordServicer{
		get: func(_ context.Context, _ string) (*domain.TaggedRecord, error) {
			return nil, fmt.Errorf("service.RecordService.Get: %w", domain.ErrNotFound)
		},
	}

	rec := serve(newRecordHTTPHandler(svc), http.MethodGet, "/records/missing", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Error.Code)
}

func TestGetRecord_500_HidesInternalError(t *testing.T) {
	svc := &mockRecordServicer{
		get: func(_ context.Context, _ string) (*domain.TaggedRecord, error) {
			return nil, errors.New("connection refused to 10.0.0.5")
		},
	}

	rec := serve(newRecordHTTPHandler(svc), http.MethodGet, "/records/ws1", "")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
}

func TestDeleteRecord_204(t *testing.T) {
	var captured string
	svc := &mockRecordServicer{
		delete: func(_ context.Context, name string) error {
			captured = name
			return nil
		},
	}

	rec := serve(newRecordHTTPHandler(svc), http.MethodDelete, "/records/ws1", "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "ws1", captured)
}

// ---- PUT /records/{name}/content -------------------------------------------

func TestSetRecordContent_200(t *testing.T) {
	var captured domain.Content
	svc := &mockRecordServicer{
		setContent: func(_ context.Context, name string, content domain.Content) (*domain.TaggedRecord, error) {
			captured = content
			r := recordFixture(name)
			require.NoError(t, r.SetContent(content))
			return r, nil
		},
	}

	rec := serve(newRecordHTTPHandler(svc), http.MethodPut, "/records/ws1/content", `{"blocks":[{"type":"controls_if"}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.Content{"blocks": []any{map[string]any{"type": "controls_if"}}}, captured)
}

func TestSetRecordContent_KeepsLargeIntegers(t *testing.T) {
	var captured domain.Content
	svc := &mockRecordServicer{
		setContent: func(_ context.Context, name string, content domain.Content) (*domain.TaggedRecord, error) {
			captured = content
			r := recordFixture(name)
			require.NoError(t, r.SetContent(content))
			return r, nil
		},
	}

	rec := serve(newRecordHTTPHandler(svc), http.MethodPut, "/records/ws1/content", `{"seed":9007199254740993}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, json.Number("9007199254740993"), captured["seed"])
	assert.Contains(t, rec.Body.String(), `"seed":9007199254740993`)
}

func TestSetRecordContent_422_Null(t *testing.T) {
	svc := &mockRecordServicer{
		setContent: func(_ context.Context, _ string, content domain.Content) (*domain.TaggedRecord, error) {
			assert.Nil(t, content)
			return nil, fmt.Errorf("service.RecordService.SetContent: %w", domain.ErrInvalidContent)
		},
	}

	rec := serve(newRecordHTTPHandler(svc), http.MethodPut, "/records/ws1/content", `null`)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "content must not be nil", decodeError(t, rec).Error.Message)
}

func TestSetRecordContent_400_NotAnObject(t *testing.T) {
	rec := serve(newRecordHTTPHandler(&mockRecordServicer{}), http.MethodPut, "/records/ws1/content", `[1,2,3]`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetRecordContent_413_BodyTooLarge(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 8)
		newRecordHTTPHandler(&mockRecordServicer{}).ServeHTTP(w, r)
	})

	rec := serve(h, http.MethodPut, "/records/ws1/content", `{"blocks":["aaaaaaaaaaaaaaaa"]}`)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

// ---- GET /records/{name}/export --------------------------------------------

func TestExportRecord_200(t *testing.T) {
	svc := &mockRecordServicer{
		export: func(_ context.Context, name string) (domain.Content, error) {
			return domain.Content{"blocks": []any{}, "id": name}, nil
		},
	}

	rec := serve(newRecordHTTPHandler(svc), http.MethodGet, "/records/ws1/export", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename=ws1.json`, rec.Header().Get("Content-Disposition"))
	assert.JSONEq(t, `{"blocks":[],"id":"ws1"}`, rec.Body.String())
}

func TestExportRecord_404(t *testing.T) {
	svc := &mockRecordServicer{
		export: func(_ context.Context, _ string) (domain.Content, error) {
			return nil, domain.ErrNotFound
		},
	}

	rec := serve(newRecordHTTPHandler(svc), http.MethodGet, "/records/missing/export", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ---- GET /openapi.yaml -----------------------------------------------------

func TestOpenAPI_Served(t *testing.T) {
	rec := serve(newRecordHTTPHandler(nil), http.MethodGet, "/openapi.yaml", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "openapi:")
}
