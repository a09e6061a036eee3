package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"stockapi/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, body *bytes.Buffer) model.ErrorResponse {
	t.Helper()
	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(body.Bytes(), &resp))
	return resp
}

func TestProductHandler_List(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name           string
		mockReturn     []model.Product
		mockError      error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "Empty list is an array",
			mockReturn:     []model.Product{},
			expectedStatus: http.StatusOK,
			expectedBody:   "[]\n",
		},
		{
			name: "Success",
			mockReturn: []model.Product{
				{ID: 1, Name: "Phone", Price: decimal.RequireFromString("199.99"), Stock: 2, Categories: []model.CategorySummary{}},
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Service error",
			mockError:      errors.New("database error"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockProductService)
			if tt.mockError != nil {
				svc.On("List", mock.Anything).Return(nil, tt.mockError)
			} else {
				svc.On("List", mock.Anything).Return(tt.mockReturn, nil)
			}

			h := NewProductHandler(svc, 1<<20, logger)
			req := httptest.NewRequest(http.MethodGet, "/v1/products", nil)
			w := httptest.NewRecorder()

			h.List(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.Equal(t, tt.expectedBody, w.Body.String())
			}
			if tt.mockError != nil {
				resp := decodeError(t, w.Body)
				assert.Equal(t, model.ErrCodeInternalError, resp.Error)
				assert.NotContains(t, w.Body.String(), "database error")
			}
		})
	}
}

func TestProductHandler_GetByID(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name           string
		id             string
		setupMock      func(svc *MockProductService)
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "Found",
			id:   "5",
			setupMock: func(svc *MockProductService) {
				svc.On("GetByID", mock.Anything, int64(5)).
					Return(&model.Product{ID: 5, Name: "Phone", Categories: []model.CategorySummary{{ID: 1, Name: "A"}}}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "Unknown ID",
			id:   "999999",
			setupMock: func(svc *MockProductService) {
				svc.On("GetByID", mock.Anything, int64(999999)).Return(nil, model.ErrProductNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedCode:   model.ErrCodeProductNotFound,
		},
		{
			name:           "Non-numeric ID",
			id:             "abc",
			setupMock:      func(svc *MockProductService) {},
			expectedStatus: http.StatusNotFound,
			expectedCode:   model.ErrCodeProductNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockProductService)
			tt.setupMock(svc)

			h := NewProductHandler(svc, 1<<20, logger)
			req := httptest.NewRequest(http.MethodGet, "/v1/products/"+tt.id, nil)
			req.SetPathValue("id", tt.id)
			w := httptest.NewRecorder()

			h.GetByID(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeError(t, w.Body).Error)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestProductHandler_Create_JSON(t *testing.T) {
	logger := zerolog.Nop()
	svc := new(MockProductService)

	svc.On("Create", mock.Anything, mock.MatchedBy(func(req *model.CreateProductRequest) bool {
		return req.Name == "Phone" &&
			req.Price.Equal(decimal.RequireFromString("199.99")) &&
			*req.Stock == 3 &&
			assert.ObjectsAreEqual([]int64{1, 2}, req.Categories) &&
			req.Image == nil
	})).Return(&model.Product{ID: 9, Name: "Phone"}, nil)

	h := NewProductHandler(svc, 1<<20, logger)
	body := `{"name":"Phone","price":199.99,"stock":3,"categories":[1,2]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/products", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	h.Create(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"id":9`)
	svc.AssertExpectations(t)
}

func TestProductHandler_Create_ValidationError(t *testing.T) {
	logger := zerolog.Nop()
	svc := new(MockProductService)

	svc.On("Create", mock.Anything, mock.Anything).Return(nil, model.NewValidationError(map[string][]string{
		"price": {"The price field is required."},
	}))

	h := NewProductHandler(svc, 1<<20, logger)
	req := httptest.NewRequest(http.MethodPost, "/v1/products", strings.NewReader(`{"name":"Phone"}`))
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()

	h.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w.Body)
	assert.Equal(t, model.ErrCodeValidation, resp.Error)
	assert.Equal(t, []string{"The price field is required."}, resp.Errors["price"])
	assert.Equal(t, "abc-123", resp.CorrelationID)
}

func TestProductHandler_Create_BadBodies(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name         string
		body         string
		expectedCode string
		expectField  string
	}{
		{name: "Malformed JSON", body: `{"name":`, expectedCode: model.ErrCodeInvalidJSON},
		{name: "Wrong type", body: `{"name":"Phone","stock":"many"}`, expectedCode: model.ErrCodeValidation, expectField: "stock"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockProductService)
			h := NewProductHandler(svc, 1<<20, logger)

			req := httptest.NewRequest(http.MethodPost, "/v1/products", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			h.Create(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeError(t, w.Body)
			assert.Equal(t, tt.expectedCode, resp.Error)
			if tt.expectField != "" {
				assert.Contains(t, resp.Errors, tt.expectField)
			}
			svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func newMultipartRequest(t *testing.T, fields map[string][]string, image []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, values := range fields {
		for _, v := range values {
			require.NoError(t, mw.WriteField(name, v))
		}
	}
	if image != nil {
		part, err := mw.CreateFormFile("image", "photo.png")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/products", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestProductHandler_Create_Multipart(t *testing.T) {
	logger := zerolog.Nop()
	image := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...)

	tests := []struct {
		name       string
		categories map[string][]string
		expected   []int64
	}{
		{name: "JSON encoded categories", categories: map[string][]string{"categories": {"[1,2]"}}, expected: []int64{1, 2}},
		{name: "Repeated bracket fields", categories: map[string][]string{"categories[]": {"3", "4"}}, expected: []int64{3, 4}},
		{name: "Comma separated", categories: map[string][]string{"categories": {"5,6"}}, expected: []int64{5, 6}},
		{name: "No categories", categories: map[string][]string{}, expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockProductService)
			var gotImage []byte

			svc.On("Create", mock.Anything, mock.MatchedBy(func(req *model.CreateProductRequest) bool {
				return req.Name == "Phone" &&
					req.Description == nil &&
					req.Price.Equal(decimal.RequireFromString("10.50")) &&
					*req.Stock == 4 &&
					assert.ObjectsAreEqual(tt.expected, req.Categories) &&
					req.Image != nil && req.Image.Filename == "photo.png"
			})).
				Run(func(args mock.Arguments) {
					req := args.Get(1).(*model.CreateProductRequest)
					gotImage, _ = io.ReadAll(req.Image.Body)
				}).
				Return(&model.Product{ID: 1}, nil)

			fields := map[string][]string{
				"name":        {"Phone"},
				"description": {""},
				"price":       {"10.50"},
				"stock":       {"4"},
			}
			for k, v := range tt.categories {
				fields[k] = v
			}

			h := NewProductHandler(svc, 1<<20, logger)
			req := newMultipartRequest(t, fields, image)
			w := httptest.NewRecorder()

			h.Create(w, req)

			assert.Equal(t, http.StatusCreated, w.Code)
			assert.Equal(t, image, gotImage)
			svc.AssertExpectations(t)
		})
	}
}

func TestProductHandler_Create_MultipartBadFields(t *testing.T) {
	logger := zerolog.Nop()
	svc := new(MockProductService)
	h := NewProductHandler(svc, 1<<20, logger)

	req := newMultipartRequest(t, map[string][]string{
		"name":       {"Phone"},
		"price":      {"cheap"},
		"stock":      {"lots"},
		"categories": {"1,x"},
	}, nil)
	w := httptest.NewRecorder()

	h.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w.Body)
	assert.Equal(t, model.ErrCodeValidation, resp.Error)
	assert.Contains(t, resp.Errors, "price")
	assert.Contains(t, resp.Errors, "stock")
	assert.Contains(t, resp.Errors, "categories.1")
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProductHandler_Update(t *testing.T) {
	logger := zerolog.Nop()
	svc := new(MockProductService)

	svc.On("Update", mock.Anything, int64(3), mock.MatchedBy(func(req *model.UpdateProductRequest) bool {
		return req.Name == nil && req.Categories != nil && len(*req.Categories) == 0
	})).Return(&model.Product{ID: 3, Categories: []model.CategorySummary{}}, nil)

	h := NewProductHandler(svc, 1<<20, logger)
	req := httptest.NewRequest(http.MethodPut, "/v1/products/3", strings.NewReader(`{"categories":[]}`))
	req.SetPathValue("id", "3")
	w := httptest.NewRecorder()

	h.Update(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"categories":[]`)
	svc.AssertExpectations(t)
}

func TestProductHandler_Update_Description(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		match func(d model.NullableString) bool
	}{
		{
			name:  "Absent keeps stored value",
			body:  `{"stock":4}`,
			match: func(d model.NullableString) bool { return !d.Set },
		},
		{
			name:  "Null clears",
			body:  `{"description":null}`,
			match: func(d model.NullableString) bool { return d.Set && d.Value == nil },
		},
		{
			name:  "String replaces",
			body:  `{"description":"USB-C"}`,
			match: func(d model.NullableString) bool { return d.Set && d.Value != nil && *d.Value == "USB-C" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockProductService)
			svc.On("Update", mock.Anything, int64(3), mock.MatchedBy(func(req *model.UpdateProductRequest) bool {
				return tt.match(req.Description)
			})).Return(&model.Product{ID: 3, Categories: []model.CategorySummary{}}, nil)

			h := NewProductHandler(svc, 1<<20, zerolog.Nop())
			req := httptest.NewRequest(http.MethodPut, "/v1/products/3", strings.NewReader(tt.body))
			req.SetPathValue("id", "3")
			w := httptest.NewRecorder()

			h.Update(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestProductHandler_Delete(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name           string
		id             string
		mockErr        error
		callsService   bool
		expectedStatus int
	}{
		{name: "Success", id: "3", callsService: true, expectedStatus: http.StatusNoContent},
		{name: "Not found", id: "999999", mockErr: model.ErrProductNotFound, callsService: true, expectedStatus: http.StatusNotFound},
		{name: "Invalid ID", id: "-1", expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockProductService)
			if tt.callsService {
				svc.On("Delete", mock.Anything, mock.AnythingOfType("int64")).Return(tt.mockErr)
			}

			h := NewProductHandler(svc, 1<<20, logger)
			req := httptest.NewRequest(http.MethodDelete, "/v1/products/"+tt.id, nil)
			req.SetPathValue("id", tt.id)
			w := httptest.NewRecorder()

			h.Delete(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusNoContent {
				assert.Empty(t, w.Body.String())
			}
			svc.AssertExpectations(t)
		})
	}
}
