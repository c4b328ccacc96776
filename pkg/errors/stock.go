package errors

// OutOfStock reports a zero-stock product on add-to-cart.
func OutOfStock(productID int64) *Error {
	return New(CodeOutOfStock, "product is out of stock").
		WithDetails(map[string]any{"product_id": productID})
}

// InsufficientStock reports a stock-bound violation and carries the
// available count so callers can surface it.
func InsufficientStock(productID int64, available int) *Error {
	return New(CodeInsufficientStock, "requested quantity exceeds available stock").
		WithDetails(map[string]any{"product_id": productID, "available": available})
}

// InvalidQuantity rejects non-positive quantities.
func InvalidQuantity(quantity int) *Error {
	return New(CodeInvalidQuantity, "quantity must be at least 1").
		WithDetails(map[string]any{"quantity": quantity})
}

// AvailableStock extracts the available count from an
// INSUFFICIENT_STOCK error, or -1 when the error is something else.
func AvailableStock(err error) int {
	typed := As(err)
	if typed == nil || typed.Code() != CodeInsufficientStock {
		return -1
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		return -1
	}
	available, ok := details["available"].(int)
	if !ok {
		return -1
	}
	return available
}
