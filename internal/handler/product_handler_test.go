package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"store-api/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProductHandler_GetAll(t *testing.T) {
	logger := zerolog.Nop()

	testProducts := []model.Product{
		{Slug: "sourdough-loaf", Name: "Sourdough loaf", GrossPrice: 6500, MomsRate: 12},
		{Slug: "gift-card", Name: "Gift card", GrossPrice: 50000},
	}

	tests := []struct {
		name           string
		queryParams    string
		mockReturn     []model.Product
		mockError      error
		expectedStatus int
		expectService  bool
		limit          int
		offset         int
	}{
		{
			name:           "Success with default pagination",
			mockReturn:     testProducts,
			expectedStatus: http.StatusOK,
			expectService:  true,
			limit:          10,
		},
		{
			name:           "Success with custom pagination",
			queryParams:    "?limit=5&offset=10",
			mockReturn:     testProducts,
			expectedStatus: http.StatusOK,
			expectService:  true,
			limit:          5,
			offset:         10,
		},
		{
			name:           "Invalid limit parameter",
			queryParams:    "?limit=invalid",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Invalid offset parameter",
			queryParams:    "?offset=invalid",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Service error",
			mockError:      model.NewPersistenceError("failed to get products", errors.New("database error")),
			expectedStatus: http.StatusInternalServerError,
			expectService:  true,
			limit:          10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockProductService)
			handler := NewProductHandler(mockService, logger)

			if tt.expectService {
				mockService.On("GetAll", mock.Anything, tt.limit, tt.offset).
					Return(tt.mockReturn, tt.mockError)
			}

			req := httptest.NewRequest(http.MethodGet, "/api/products"+tt.queryParams, nil)
			w := httptest.NewRecorder()

			handler.GetAll(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}

func TestProductHandler_GetBySlug(t *testing.T) {
	logger := zerolog.Nop()

	loaf := &model.Product{Slug: "sourdough-loaf", Name: "Sourdough loaf", GrossPrice: 6500, MomsRate: 12}

	tests := []struct {
		name           string
		slug           string
		mockReturn     *model.Product
		mockError      error
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "Success",
			slug:           "sourdough-loaf",
			mockReturn:     loaf,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Product not found",
			slug:           "croissant",
			mockError:      model.ErrProductNotFound,
			expectedStatus: http.StatusNotFound,
			expectedCode:   model.ErrCodeProductNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockProductService)
			handler := NewProductHandler(mockService, logger)

			mockService.On("GetBySlug", mock.Anything, tt.slug).Return(tt.mockReturn, tt.mockError)

			req := withURLParams(httptest.NewRequest(http.MethodGet, "/api/products/"+tt.slug, nil), map[string]string{"slug": tt.slug})
			w := httptest.NewRecorder()

			handler.GetBySlug(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				var body model.ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, tt.expectedCode, body.Error)
			} else {
				var product model.Product
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &product))
				assert.Equal(t, loaf.Slug, product.Slug)
			}
			mockService.AssertExpectations(t)
		})
	}
}
