package core

import "errors"

var (
	// ErrRateLimitExceeded means the quota gate refused a fresh upstream fetch.
	ErrRateLimitExceeded = errors.New("rate limit exceeded, please try again later")

	// ErrFetchFailed means the upstream call failed at the transport level or
	// returned a non-2xx status.
	ErrFetchFailed = errors.New("failed to fetch product data")

	// ErrMalformedResponse means the upstream payload is not a valid product.
	ErrMalformedResponse = errors.New("malformed product response")

	// ErrSizeRequired means a cart mutation was attempted without a size.
	ErrSizeRequired = errors.New("please select a size")

	// ErrUnknownSize means the requested size is not offered by the product.
	ErrUnknownSize = errors.New("size is not offered for this product")

	// ErrQuantityLimit means a cart line would exceed the per-line quantity cap.
	ErrQuantityLimit = errors.New("quantity limit reached for this size")

	// ErrProductUnavailable means a cart mutation needs a product that has not been loaded.
	ErrProductUnavailable = errors.New("product is not loaded")
)
