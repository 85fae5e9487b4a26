package service

import (
	"github.com/dukerupert/quickorder/internal/domain"
)

// Request errors - use domain.EINVALID
var (
	ErrNoLines         = domain.Errorf(domain.EINVALID, "", "Add at least one line before checking availability")
	ErrNothingToSubmit = domain.Errorf(domain.EINVALID, "", "There are no valid lines to add to the cart")
	ErrUnresolvedLine  = domain.Errorf(domain.EINVALID, "", "Every line must be matched to a product before it is added to the cart")
)

// Pass errors
var (
	ErrStalePass = domain.Errorf(domain.ECONFLICT, "", "A newer availability check for this list replaced this one")
)
