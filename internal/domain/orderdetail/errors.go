package orderdetail

import "errors"

var (
	ErrOrderDetailNotFound = errors.New("order detail not found")
	ErrInvalidQuantity     = errors.New("quantity must be greater than zero")
)
