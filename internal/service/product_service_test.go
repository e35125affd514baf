package service

import (
	"context"
	"errors"
	"testing"

	"store-api/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProductService_GetAll(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	testProducts := []model.Product{
		deliveryProduct("sourdough-loaf", 6500, 12, 2, 0, 4900),
		deliveryProduct("gift-card", 50000, 0, 0),
	}

	tests := []struct {
		name           string
		limit          int
		offset         int
		expectedLimit  int
		expectedOffset int
		mockReturn     []model.Product
		mockError      error
		expectError    bool
	}{
		{
			name:          "Success with valid pagination",
			limit:         10,
			expectedLimit: 10,
			mockReturn:    testProducts,
		},
		{
			name:          "Zero limit defaults to 10",
			limit:         0,
			expectedLimit: 10,
			mockReturn:    testProducts,
		},
		{
			name:          "Negative limit defaults to 10",
			limit:         -5,
			expectedLimit: 10,
			mockReturn:    testProducts,
		},
		{
			name:          "Limit exceeding max caps at 100",
			limit:         200,
			expectedLimit: 100,
			mockReturn:    testProducts,
		},
		{
			name:           "Offset is passed through",
			limit:          10,
			offset:         20,
			expectedLimit:  10,
			expectedOffset: 20,
			mockReturn:     []model.Product{},
		},
		{
			name:          "Negative offset defaults to 0",
			limit:         10,
			offset:        -10,
			expectedLimit: 10,
			mockReturn:    testProducts,
		},
		{
			name:          "Repository error",
			limit:         10,
			expectedLimit: 10,
			mockError:     errors.New("database error"),
			expectError:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockProductRepository)
			service := NewProductService(mockRepo, logger)

			mockRepo.On("GetAll", ctx, tt.expectedLimit, tt.expectedOffset).
				Return(tt.mockReturn, tt.mockError)

			products, err := service.GetAll(ctx, tt.limit, tt.offset)

			if tt.expectError {
				require.Error(t, err)
				assert.True(t, model.IsKind(err, model.KindPersistence))
				assert.Nil(t, products)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.mockReturn, products)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestProductService_GetBySlug(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	loaf := deliveryProduct("sourdough-loaf", 6500, 12, 2, 0, 4900)

	tests := []struct {
		name        string
		slug        string
		mockReturn  *model.Product
		mockError   error
		expectedErr error
		expectKind  model.ErrorKind
	}{
		{
			name:       "Success",
			slug:       "sourdough-loaf",
			mockReturn: &loaf,
		},
		{
			name:        "Product not found",
			slug:        "croissant",
			expectedErr: model.ErrProductNotFound,
			expectKind:  model.KindNotFound,
		},
		{
			name:        "Empty slug",
			slug:        "",
			expectedErr: model.ErrProductNotFound,
			expectKind:  model.KindNotFound,
		},
		{
			name:       "Repository error",
			slug:       "sourdough-loaf",
			mockError:  errors.New("database error"),
			expectKind: model.KindPersistence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockProductRepository)
			service := NewProductService(mockRepo, logger)

			if tt.slug != "" {
				mockRepo.On("GetBySlug", ctx, tt.slug).Return(tt.mockReturn, tt.mockError)
			}

			product, err := service.GetBySlug(ctx, tt.slug)

			if tt.expectKind != "" {
				require.Error(t, err)
				assert.Nil(t, product)
				assert.True(t, model.IsKind(err, tt.expectKind))
				if tt.expectedErr != nil {
					assert.ErrorIs(t, err, tt.expectedErr)
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.mockReturn, product)
			}

			if tt.slug == "" {
				mockRepo.AssertNotCalled(t, "GetBySlug", mock.Anything, mock.Anything)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}
