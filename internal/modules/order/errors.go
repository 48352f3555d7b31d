// README: Order error taxonomy; sentinel errors plus the accumulated validation list.
package order

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound           = errors.New("order not found")
	ErrNotOrderDriver     = errors.New("not the order's driver")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrStatusCannotRevert = errors.New("status cannot revert")
	ErrBadRequest         = errors.New("bad request")
)

// Code identifies one kind of order-validation failure.
type Code string

const (
	CodeProductUnavailable    Code = "ProductUnavailable"
	CodeAddOnNotFound         Code = "AddOnNotFound"
	CodeOptionGroupNotFound   Code = "OptionGroupNotFound"
	CodeOptionNotFound        Code = "OptionNotFound"
	CodeDuplicateChoice       Code = "DuplicateChoice"
	CodeMissingRequiredChoice Code = "MissingRequiredChoice"
	CodeUnexpectedChoice      Code = "UnexpectedChoice"
	CodeShopUnavailable       Code = "ShopUnavailable"
	CodeShopTooFar            Code = "ShopTooFar"
	CodeNoDriverAvailable     Code = "NoDriverAvailable"
)

// ValidationError describes one problem with an order request. ItemIndex is
// the offending item's position, or -1 for order-level failures.
type ValidationError struct {
	Code      Code   `json:"code"`
	Detail    string `json:"detail"`
	ItemIndex int    `json:"item_index"`
}

func itemError(index int, code Code, format string, args ...any) ValidationError {
	return ValidationError{Code: code, Detail: fmt.Sprintf(format, args...), ItemIndex: index}
}

func orderError(code Code, format string, args ...any) ValidationError {
	return ValidationError{Code: code, Detail: fmt.Sprintf(format, args...), ItemIndex: -1}
}

// ValidationErrors is the accumulated, ordered list of everything wrong with
// a request; it is never fail-fast.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = fmt.Sprintf("%s: %s", e.Code, e.Detail)
	}
	return strings.Join(parts, "; ")
}
