package commerce

import (
	"context"
	"fmt"

	"github.com/dukerupert/quickorder/internal/domain"
)

const getCartQuery = `query GetCart($entityId: String!) {
  site {
    cart(entityId: $entityId) {
      entityId
      lineItems {
        physicalItems { productEntityId variantEntityId sku quantity }
        digitalItems { productEntityId variantEntityId sku quantity }
      }
    }
  }
}`

const createCartMutation = `mutation CreateCart($createCartInput: CreateCartInput!) {
  cart {
    createCart(input: $createCartInput) {
      cart { entityId }
    }
  }
}`

const addCartLineItemsMutation = `mutation AddCartLineItems($addCartLineItemsInput: AddCartLineItemsInput!) {
  cart {
    addCartLineItems(input: $addCartLineItemsInput) {
      cart { entityId }
    }
  }
}`

// CartLineInput is one line of a cart mutation.
type CartLineInput struct {
	ProductID int64 `json:"productEntityId"`
	VariantID int64 `json:"variantEntityId,omitempty"`
	Quantity  int   `json:"quantity"`
}

type cartItem struct {
	ProductEntityID int64  `json:"productEntityId"`
	VariantEntityID int64  `json:"variantEntityId"`
	SKU             string `json:"sku"`
	Quantity        int    `json:"quantity"`
}

type cartData struct {
	Site struct {
		Cart *struct {
			EntityID  string `json:"entityId"`
			LineItems struct {
				PhysicalItems []cartItem `json:"physicalItems"`
				DigitalItems  []cartItem `json:"digitalItems"`
			} `json:"lineItems"`
		} `json:"cart"`
	} `json:"site"`
}

type cartRef struct {
	Cart *struct {
		EntityID string `json:"entityId"`
	} `json:"cart"`
}

type createCartData struct {
	Cart struct {
		CreateCart *cartRef `json:"createCart"`
	} `json:"cart"`
}

type addCartLineItemsData struct {
	Cart struct {
		AddCartLineItems *cartRef `json:"addCartLineItems"`
	} `json:"cart"`
}

// GetCart returns the active cart's quantities. An empty cart ID, or a cart
// the platform no longer knows about, yields an empty snapshot so the next
// submission creates a fresh cart.
func (c *Client) GetCart(ctx context.Context, cartID string) (domain.CartSnapshot, error) {
	const op = "commerce.get_cart"

	if cartID == "" {
		return domain.CartSnapshot{}, nil
	}

	var data cartData
	gqlErrs, err := c.read(ctx, "get_cart", getCartQuery, map[string]interface{}{"entityId": cartID}, &data)
	if err != nil {
		return domain.CartSnapshot{}, domain.Unavailable(err, op, "The cart is unavailable. Please try again.")
	}
	if len(gqlErrs) > 0 {
		return domain.CartSnapshot{}, domain.Unavailable(
			fmt.Errorf("%w: %v", ErrQueryFailed, messages(gqlErrs)),
			op, "The cart is unavailable. Please try again.")
	}

	cart := data.Site.Cart
	if cart == nil {
		c.logger.Info("cart not found, treating as empty", "cart_id", cartID)
		return domain.CartSnapshot{}, nil
	}

	snapshot := domain.CartSnapshot{CartID: cart.EntityID}
	for _, items := range [][]cartItem{cart.LineItems.PhysicalItems, cart.LineItems.DigitalItems} {
		for _, item := range items {
			snapshot.Lines = append(snapshot.Lines, domain.ExistingCartQuantity{
				ProductID: item.ProductEntityID,
				VariantID: item.VariantEntityID,
				SKU:       item.SKU,
				Quantity:  item.Quantity,
			})
		}
	}
	return snapshot, nil
}

// CreateCart creates a cart seeded with lines and returns its ID. Platform
// rejections come back as *MutationError.
func (c *Client) CreateCart(ctx context.Context, lines []CartLineInput) (string, error) {
	const op = "commerce.create_cart"

	vars := map[string]interface{}{
		"createCartInput": map[string]interface{}{"lineItems": lines},
	}

	var data createCartData
	gqlErrs, err := c.execute(ctx, "create_cart", createCartMutation, vars, &data)
	if err != nil {
		return "", domain.Unavailable(err, op, "The cart could not be reached. Please try again.")
	}
	if len(gqlErrs) > 0 {
		return "", &MutationError{Operation: "createCart", Messages: messages(gqlErrs)}
	}
	if data.Cart.CreateCart == nil || data.Cart.CreateCart.Cart == nil {
		return "", domain.Internal(ErrEmptyMutationResult, op, "cart creation returned no cart")
	}
	return data.Cart.CreateCart.Cart.EntityID, nil
}

// AddLinesToCart appends lines to an existing cart in one request and
// returns the cart ID the platform reports.
func (c *Client) AddLinesToCart(ctx context.Context, cartID string, lines []CartLineInput) (string, error) {
	const op = "commerce.add_cart_lines"

	vars := map[string]interface{}{
		"addCartLineItemsInput": map[string]interface{}{
			"cartEntityId": cartID,
			"data":         map[string]interface{}{"lineItems": lines},
		},
	}

	var data addCartLineItemsData
	gqlErrs, err := c.execute(ctx, "add_cart_lines", addCartLineItemsMutation, vars, &data)
	if err != nil {
		return "", domain.Unavailable(err, op, "The cart could not be reached. Please try again.")
	}
	if len(gqlErrs) > 0 {
		return "", &MutationError{Operation: "addCartLineItems", Messages: messages(gqlErrs)}
	}
	if data.Cart.AddCartLineItems == nil || data.Cart.AddCartLineItems.Cart == nil {
		return "", domain.Internal(ErrEmptyMutationResult, op, "adding cart lines returned no cart")
	}
	return data.Cart.AddCartLineItems.Cart.EntityID, nil
}
