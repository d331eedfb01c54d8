package handler

import (
	"net/http"
	"testing"

	"meal-kart/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestCartHandler_Create(t *testing.T) {
	logger := zerolog.Nop()
	userID := uuid.New()

	tests := []struct {
		name           string
		mockErr        error
		expectedStatus int
	}{
		{name: "created", expectedStatus: http.StatusCreated},
		{name: "already exists", mockErr: model.ErrCartExists, expectedStatus: http.StatusConflict},
		{name: "unknown user", mockErr: model.NewNotFoundError("User not found"), expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockCartService)
			if tt.mockErr != nil {
				mockService.On("Create", mock.Anything, userID).Return(nil, tt.mockErr)
			} else {
				mockService.On("Create", mock.Anything, userID).Return(&model.Cart{ID: uuid.New(), UserID: userID}, nil)
			}
			h := NewCartHandler(mockService, logger)

			w := serve(http.MethodPost, "/api/carts", "/api/carts", `{"userId":"`+userID.String()+`"}`, h.Create)

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}

func TestCartHandler_UpdateItem(t *testing.T) {
	logger := zerolog.Nop()
	itemID := uuid.New()

	t.Run("quantity changed", func(t *testing.T) {
		mockService := new(MockCartService)
		mockService.On("UpdateItem", mock.Anything, itemID, mock.MatchedBy(func(p model.CartItemPatch) bool {
			return p.Quantity != nil && *p.Quantity == 3
		})).Return(&model.CartItem{ID: itemID, Quantity: 3}, nil)
		h := NewCartHandler(mockService, logger)

		w := serve(http.MethodPatch, "/api/cart-items/{id}", "/api/cart-items/"+itemID.String(), `{"quantity":3}`, h.UpdateItem)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("zero quantity removes", func(t *testing.T) {
		mockService := new(MockCartService)
		mockService.On("UpdateItem", mock.Anything, itemID, mock.Anything).Return(nil, nil)
		h := NewCartHandler(mockService, logger)

		w := serve(http.MethodPatch, "/api/cart-items/{id}", "/api/cart-items/"+itemID.String(), `{"quantity":0}`, h.UpdateItem)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})
}

func TestCartHandler_AddItem(t *testing.T) {
	logger := zerolog.Nop()
	cartID := uuid.New()

	mockService := new(MockCartService)
	mockService.On("AddItem", mock.Anything, mock.Anything).Return(nil, model.ErrInvalidQuantity)
	h := NewCartHandler(mockService, logger)

	w := serve(http.MethodPost, "/api/cart-items", "/api/cart-items",
		`{"cartId":"`+cartID.String()+`","productId":"P001","quantity":-2}`, h.AddItem)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, model.ErrCodeInvalidQuantity, decodeErrorBody(t, w).Error)
}

func TestCartHandler_ListItems(t *testing.T) {
	logger := zerolog.Nop()
	cartID := uuid.New()

	mockService := new(MockCartService)
	mockService.On("ListItems", mock.Anything, &cartID).Return([]model.CartItem{}, nil)
	h := NewCartHandler(mockService, logger)

	w := serve(http.MethodGet, "/api/cart-items", "/api/cart-items?cartId="+cartID.String(), "", h.ListItems)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestCartHandler_DeleteItem(t *testing.T) {
	logger := zerolog.Nop()
	itemID := uuid.New()

	mockService := new(MockCartService)
	mockService.On("DeleteItem", mock.Anything, itemID).Return(model.NewNotFoundError("Cart item not found"))
	h := NewCartHandler(mockService, logger)

	w := serve(http.MethodDelete, "/api/cart-items/{id}", "/api/cart-items/"+itemID.String(), "", h.DeleteItem)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCartHandler_GetItem(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("found", func(t *testing.T) {
		itemID := uuid.New()
		mockService := new(MockCartService)
		mockService.On("GetItem", mock.Anything, itemID).Return(&model.CartItem{ID: itemID, Quantity: 1}, nil)
		h := NewCartHandler(mockService, logger)

		w := serve(http.MethodGet, "/api/cart-items/{id}", "/api/cart-items/"+itemID.String(), "", h.GetItem)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), itemID.String())
	})

	t.Run("invalid id", func(t *testing.T) {
		mockService := new(MockCartService)
		h := NewCartHandler(mockService, logger)

		w := serve(http.MethodGet, "/api/cart-items/{id}", "/api/cart-items/nope", "", h.GetItem)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "GetItem", mock.Anything, mock.Anything)
	})
}
