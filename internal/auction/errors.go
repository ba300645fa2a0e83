package auction

import "errors"

// Errors returned by auction operations.
var (
	ErrNotSaleToken    = errors.New("item is not a recognized auction sale")
	ErrInvalidToken    = errors.New("malformed sale token")
	ErrShopNotLoaded   = errors.New("shop is not loaded")
	ErrNotForSale      = errors.New("sale has no price set")
	ErrOwnSale         = errors.New("cannot buy your own sale")
	ErrNotOwner        = errors.New("sale belongs to another player")
	ErrInvalidPrice    = errors.New("price must not be negative")
	ErrDuplicateEntity = errors.New("a similar shop entity already exists")
	ErrWrongType       = errors.New("item does not belong to this auction type")
)
