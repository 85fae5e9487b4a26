package commerce

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/quickorder/internal/domain"
)

// graphQLHandler answers one decoded request with a status and a JSON body.
type graphQLHandler func(t *testing.T, r *http.Request, req graphQLRequest) (int, string)

func newTestClient(t *testing.T, handle graphQLHandler) (*Client, *int32) {
	t.Helper()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)

		var req graphQLRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		status, body := handle(t, r, req)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(Config{
		URL:       srv.URL,
		Token:     "test-token",
		ChannelID: "1",
		Timeout:   2 * time.Second,
	}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	return client, &hits
}

func TestSearchProducts(t *testing.T) {
	client, hits := newTestClient(t, func(t *testing.T, r *http.Request, req graphQLRequest) (int, string) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Contains(t, req.Query, "productsSearch")
		assert.Equal(t, []interface{}{float64(10)}, req.Variables["productIds"])
		assert.Equal(t, []interface{}{"MUG"}, req.Variables["skus"])
		assert.Equal(t, "USD", req.Variables["currencyCode"])
		assert.Equal(t, float64(7), req.Variables["companyId"])
		assert.Equal(t, "1", req.Variables["channelId"])
		assert.NotContains(t, req.Variables, "customerGroupId")

		return http.StatusOK, `{"data":{"productsSearch":[
			{"id":10,"name":"Shirt","sku":"SHIRT","inventoryLevel":99,"inventoryTracking":"variant",
			 "orderQuantityMinimum":2,"orderQuantityMaximum":0,
			 "variants":[
				{"variant_id":100,"sku":"SHIRT-M","purchasing_disabled":false,"inventory_level":5,
				 "bc_calculated_price":{"tax_exclusive":10.00,"tax_inclusive":11.00}},
				{"variant_id":101,"sku":"SHIRT-L","purchasing_disabled":true,"inventory_level":0,
				 "bc_calculated_price":{"tax_exclusive":"12.50","tax_inclusive":"12.50"}}
			 ]},
			{"id":20,"name":"Mug","sku":"MUG","inventoryLevel":3,"inventoryTracking":"product",
			 "variants":[{"variant_id":200,"sku":"MUG","inventory_level":1000,"calculated_price":4.25}]},
			{"id":30,"name":"Gift card","sku":"GIFT","inventoryLevel":8,"inventoryTracking":"none","variants":[]}
		]}}`
	})

	rows, err := client.SearchProducts(context.Background(), SearchParams{
		ProductIDs:   []int64{10},
		SKUs:         []string{"MUG"},
		CurrencyCode: "USD",
		CompanyID:    7,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(hits))
	require.Len(t, rows, 4)

	shirtM := rows[0]
	assert.Equal(t, int64(10), shirtM.ProductID)
	assert.Equal(t, int64(100), shirtM.VariantID)
	assert.Equal(t, "SHIRT-M", shirtM.SKU)
	assert.Equal(t, "Shirt", shirtM.Name)
	assert.Equal(t, domain.TrackingVariant, shirtM.TrackingMode)
	assert.Equal(t, 5, shirtM.InventoryLevel, "variant tracking uses the variant level")
	assert.Equal(t, 2, shirtM.OrderQuantityMinimum)
	assert.True(t, shirtM.BasePrice.Equal(decimal.RequireFromString("10")))
	assert.True(t, shirtM.TaxPrice.Equal(decimal.RequireFromString("1")))

	shirtL := rows[1]
	assert.True(t, shirtL.PurchasingDisabled)
	assert.True(t, shirtL.TaxPrice.IsZero())

	mug := rows[2]
	assert.Equal(t, domain.TrackingProduct, mug.TrackingMode)
	assert.Equal(t, 3, mug.InventoryLevel, "product tracking uses the product level")
	assert.True(t, mug.BasePrice.Equal(decimal.RequireFromString("4.25")))

	gift := rows[3]
	assert.Equal(t, int64(0), gift.VariantID)
	assert.Equal(t, domain.TrackingNone, gift.TrackingMode)
	assert.Equal(t, 0, gift.InventoryLevel)
}

func TestSearchProducts_NothingToSearch(t *testing.T) {
	client, hits := newTestClient(t, func(t *testing.T, r *http.Request, req graphQLRequest) (int, string) {
		return http.StatusOK, `{"data":{"productsSearch":[]}}`
	})

	rows, err := client.SearchProducts(context.Background(), SearchParams{CurrencyCode: "USD"})
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.EqualValues(t, 0, atomic.LoadInt32(hits))
}

func TestSearchProducts_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{
			name:    "graphql errors",
			status:  http.StatusOK,
			body:    `{"data":null,"errors":[{"message":"currency not enabled"}]}`,
			wantErr: ErrQueryFailed,
		},
		{
			name:    "bad gateway",
			status:  http.StatusBadGateway,
			body:    `upstream down`,
			wantErr: ErrUnexpectedStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(t *testing.T, r *http.Request, req graphQLRequest) (int, string) {
				return tt.status, tt.body
			})

			_, err := client.SearchProducts(context.Background(), SearchParams{SKUs: []string{"MUG"}, CurrencyCode: "USD"})
			require.Error(t, err)
			assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))
			assert.True(t, domain.IsRetryable(err))
			assert.True(t, errors.Is(err, tt.wantErr))
		})
	}
}

func TestSearchProducts_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(Config{URL: url, Timeout: time.Second}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := client.SearchProducts(context.Background(), SearchParams{SKUs: []string{"MUG"}, CurrencyCode: "USD"})
	require.Error(t, err)
	assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))
}

func TestReadBreaker_OpensAndSparesMutations(t *testing.T) {
	client, hits := newTestClient(t, func(t *testing.T, r *http.Request, req graphQLRequest) (int, string) {
		if strings.Contains(req.Query, "createCart") {
			return http.StatusOK, `{"data":{"cart":{"createCart":{"cart":{"entityId":"cart-9"}}}}}`
		}
		return http.StatusInternalServerError, `{}`
	})

	params := SearchParams{SKUs: []string{"MUG"}, CurrencyCode: "USD"}
	for i := 0; i < 3; i++ {
		_, err := client.SearchProducts(context.Background(), params)
		require.Error(t, err)
	}
	assert.Equal(t, "open", client.BreakerState())

	_, err := client.SearchProducts(context.Background(), params)
	require.Error(t, err)
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))
	assert.EqualValues(t, 3, atomic.LoadInt32(hits), "open breaker rejects without a request")

	cartID, err := client.CreateCart(context.Background(), []CartLineInput{{ProductID: 1, Quantity: 1}})
	require.NoError(t, err)
	assert.Equal(t, "cart-9", cartID)
}

func TestGetCart(t *testing.T) {
	t.Run("no cart id skips the request", func(t *testing.T) {
		client, hits := newTestClient(t, func(t *testing.T, r *http.Request, req graphQLRequest) (int, string) {
			return http.StatusOK, `{}`
		})

		cart, err := client.GetCart(context.Background(), "")
		require.NoError(t, err)
		assert.Equal(t, domain.CartSnapshot{}, cart)
		assert.EqualValues(t, 0, atomic.LoadInt32(hits))
	})

	t.Run("collects physical and digital items", func(t *testing.T) {
		client, _ := newTestClient(t, func(t *testing.T, r *http.Request, req graphQLRequest) (int, string) {
			assert.Equal(t, "cart-1", req.Variables["entityId"])
			return http.StatusOK, `{"data":{"site":{"cart":{"entityId":"cart-1","lineItems":{
				"physicalItems":[{"productEntityId":10,"variantEntityId":100,"sku":"SHIRT-M","quantity":3}],
				"digitalItems":[{"productEntityId":30,"variantEntityId":300,"sku":"EBOOK","quantity":1}]
			}}}}}`
		})

		cart, err := client.GetCart(context.Background(), "cart-1")
		require.NoError(t, err)
		assert.Equal(t, "cart-1", cart.CartID)
		require.Len(t, cart.Lines, 2)
		assert.Equal(t, 3, cart.QuantityFor(domain.LineKey{ProductID: 10, VariantID: 100}))
		assert.Equal(t, 1, cart.QuantityFor(domain.LineKey{ProductID: 30, VariantID: 300}))
	})

	t.Run("unknown cart is empty", func(t *testing.T) {
		client, _ := newTestClient(t, func(t *testing.T, r *http.Request, req graphQLRequest) (int, string) {
			return http.StatusOK, `{"data":{"site":{"cart":null}}}`
		})

		cart, err := client.GetCart(context.Background(), "gone")
		require.NoError(t, err)
		assert.Empty(t, cart.CartID)
		assert.Empty(t, cart.Lines)
	})
}

func TestCreateCart(t *testing.T) {
	t.Run("sends line items once", func(t *testing.T) {
		client, hits := newTestClient(t, func(t *testing.T, r *http.Request, req graphQLRequest) (int, string) {
			input := req.Variables["createCartInput"].(map[string]interface{})
			items := input["lineItems"].([]interface{})
			require.Len(t, items, 2)

			first := items[0].(map[string]interface{})
			assert.Equal(t, float64(10), first["productEntityId"])
			assert.Equal(t, float64(100), first["variantEntityId"])
			assert.Equal(t, float64(3), first["quantity"])

			second := items[1].(map[string]interface{})
			assert.NotContains(t, second, "variantEntityId")

			return http.StatusOK, `{"data":{"cart":{"createCart":{"cart":{"entityId":"cart-new"}}}}}`
		})

		cartID, err := client.CreateCart(context.Background(), []CartLineInput{
			{ProductID: 10, VariantID: 100, Quantity: 3},
			{ProductID: 20, Quantity: 1},
		})
		require.NoError(t, err)
		assert.Equal(t, "cart-new", cartID)
		assert.EqualValues(t, 1, atomic.LoadInt32(hits))
	})

	t.Run("platform rejection is a mutation error", func(t *testing.T) {
		client, hits := newTestClient(t, func(t *testing.T, r *http.Request, req graphQLRequest) (int, string) {
			return http.StatusOK, `{"data":{"cart":{"createCart":null}},"errors":[
				{"message":"Not enough stock: SHIRT-M"},
				{"message":"Minimum quantity is 5"}
			]}`
		})

		_, err := client.CreateCart(context.Background(), []CartLineInput{{ProductID: 10, Quantity: 1}})
		require.Error(t, err)

		var mutErr *MutationError
		require.True(t, errors.As(err, &mutErr))
		assert.Equal(t, []string{"Not enough stock: SHIRT-M", "Minimum quantity is 5"}, mutErr.Messages)
		assert.EqualValues(t, 1, atomic.LoadInt32(hits), "no retry")
	})

	t.Run("missing cart in response", func(t *testing.T) {
		client, _ := newTestClient(t, func(t *testing.T, r *http.Request, req graphQLRequest) (int, string) {
			return http.StatusOK, `{"data":{"cart":{"createCart":null}}}`
		})

		_, err := client.CreateCart(context.Background(), []CartLineInput{{ProductID: 10, Quantity: 1}})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrEmptyMutationResult))
	})
}

func TestAddLinesToCart(t *testing.T) {
	t.Run("appends to the given cart", func(t *testing.T) {
		client, _ := newTestClient(t, func(t *testing.T, r *http.Request, req graphQLRequest) (int, string) {
			input := req.Variables["addCartLineItemsInput"].(map[string]interface{})
			assert.Equal(t, "cart-1", input["cartEntityId"])
			data := input["data"].(map[string]interface{})
			assert.Len(t, data["lineItems"], 1)

			return http.StatusOK, `{"data":{"cart":{"addCartLineItems":{"cart":{"entityId":"cart-1"}}}}}`
		})

		cartID, err := client.AddLinesToCart(context.Background(), "cart-1", []CartLineInput{{ProductID: 10, VariantID: 100, Quantity: 2}})
		require.NoError(t, err)
		assert.Equal(t, "cart-1", cartID)
	})

	t.Run("server error is unavailable", func(t *testing.T) {
		client, hits := newTestClient(t, func(t *testing.T, r *http.Request, req graphQLRequest) (int, string) {
			return http.StatusServiceUnavailable, ``
		})

		_, err := client.AddLinesToCart(context.Background(), "cart-1", []CartLineInput{{ProductID: 10, Quantity: 2}})
		require.Error(t, err)
		assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))
		assert.EqualValues(t, 1, atomic.LoadInt32(hits))
	})
}

func TestValidateLines(t *testing.T) {
	t.Run("verdicts in request order", func(t *testing.T) {
		client, _ := newTestClient(t, func(t *testing.T, r *http.Request, req graphQLRequest) (int, string) {
			assert.Equal(t, "cart-1", req.Variables["cartId"])
			assert.Len(t, req.Variables["items"], 2)
			return http.StatusOK, `{"data":{"validateProducts":[
				{"productId":10,"variantId":100,"responseType":"SUCCESS","message":""},
				{"productId":20,"variantId":200,"responseType":"ERROR","message":"Not enough stock"}
			]}}`
		})

		verdicts, err := client.ValidateLines(context.Background(), ValidateParams{
			CartID:       "cart-1",
			CurrencyCode: "USD",
			Lines: []ValidateLineInput{
				{ProductID: 10, VariantID: 100, Quantity: 1},
				{ProductID: 20, VariantID: 200, Quantity: 9},
			},
		})
		require.NoError(t, err)
		require.Len(t, verdicts, 2)
		assert.False(t, verdicts[0].Rejected())
		assert.True(t, verdicts[1].Rejected())
		assert.Equal(t, "Not enough stock", verdicts[1].Message)
	})

	t.Run("verdict count mismatch", func(t *testing.T) {
		client, _ := newTestClient(t, func(t *testing.T, r *http.Request, req graphQLRequest) (int, string) {
			return http.StatusOK, `{"data":{"validateProducts":[]}}`
		})

		_, err := client.ValidateLines(context.Background(), ValidateParams{
			CurrencyCode: "USD",
			Lines:        []ValidateLineInput{{ProductID: 10, VariantID: 100, Quantity: 1}},
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrVerdictMismatch))
		assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))
	})
}
