package domain

import (
	"errors"
	"fmt"
)

// Reason classifies a rejected command. Callers re-prompt on these; they are
// never fatal to the session.
type Reason string

const (
	ReasonEmptyCart              Reason = "EMPTY_CART"
	ReasonNoTable                Reason = "NO_TABLE_SELECTED"
	ReasonNoWaiter               Reason = "NO_WAITER_SELECTED"
	ReasonNoOpenShift            Reason = "NO_OPEN_SHIFT"
	ReasonShiftAlreadyOpen       Reason = "SHIFT_ALREADY_OPEN"
	ReasonOpenOrdersRemain       Reason = "OPEN_ORDERS_REMAIN"
	ReasonNegativeOpeningBalance Reason = "NEGATIVE_OPENING_BALANCE"
	ReasonCustomerNameRequired   Reason = "CUSTOMER_NAME_REQUIRED"
	ReasonInvalidTransition      Reason = "INVALID_STATUS_TRANSITION"
	ReasonOrderNotFound          Reason = "ORDER_NOT_FOUND"
	ReasonLineNotFound           Reason = "LINE_NOT_FOUND"
	ReasonMenuItemNotFound       Reason = "MENU_ITEM_NOT_FOUND"
	ReasonWaiterNotFound         Reason = "WAITER_NOT_FOUND"
	ReasonStockItemNotFound      Reason = "STOCK_ITEM_NOT_FOUND"
	ReasonInvalidCustomization   Reason = "INVALID_CUSTOMIZATION"
	ReasonInvalidTable           Reason = "INVALID_TABLE"
	ReasonHeldOrderExists        Reason = "HELD_ORDER_EXISTS"
	ReasonHeldOrderNotFound      Reason = "HELD_ORDER_NOT_FOUND"
	ReasonInvalidTender          Reason = "INVALID_TENDER"
	ReasonInvalidAmount          Reason = "INVALID_AMOUNT"
	ReasonSplitMismatch          Reason = "SPLIT_AMOUNT_MISMATCH"
	ReasonReceiptUnavailable     Reason = "RECEIPT_UNAVAILABLE"
	ReasonForbidden              Reason = "FORBIDDEN"
	ReasonInvalidPIN             Reason = "INVALID_PIN"
	ReasonInvalidPeriod          Reason = "INVALID_PERIOD"
	ReasonCartNotEmpty           Reason = "CART_NOT_EMPTY"
	ReasonInvalidDiscount        Reason = "INVALID_DISCOUNT"
	ReasonInsufficientTender     Reason = "INSUFFICIENT_TENDER"
)

type Failure struct {
	Reason Reason
	Detail string
}

func Fail(reason Reason, format string, args ...any) *Failure {
	return &Failure{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

func (f *Failure) Error() string {
	if f.Detail == "" {
		return string(f.Reason)
	}
	return fmt.Sprintf("%s: %s", f.Reason, f.Detail)
}

// Is matches any *Failure carrying the same reason, so callers can write
// errors.Is(err, domain.Fail(domain.ReasonEmptyCart, "")).
func (f *Failure) Is(target error) bool {
	var other *Failure
	if !errors.As(target, &other) {
		return false
	}
	return other.Reason == f.Reason
}

// ReasonOf extracts the failure reason from err, if any.
func ReasonOf(err error) (Reason, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Reason, true
	}
	return "", false
}
