package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ProductNotFoundError is returned when a product with the given code is not found
type ProductNotFoundError struct {
	Code string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product not found: codigo=%s", e.Code)
}

// Is allows proper error type checking with errors.Is()
func (e *ProductNotFoundError) Is(target error) bool {
	_, ok := target.(*ProductNotFoundError)
	return ok
}

// DuplicateCodeError is returned when registering a product whose code is
// already in use
type DuplicateCodeError struct {
	Code string
}

func (e *DuplicateCodeError) Error() string {
	return fmt.Sprintf("duplicate product: codigo=%s already exists", e.Code)
}

func (e *DuplicateCodeError) Is(target error) bool {
	_, ok := target.(*DuplicateCodeError)
	return ok
}

// DuplicateNameError is returned when registering a product whose name
// collides case-insensitively with an existing one (strict-names policy)
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("duplicate product: nombre=%q already exists", e.Name)
}

func (e *DuplicateNameError) Is(target error) bool {
	_, ok := target.(*DuplicateNameError)
	return ok
}

// InsufficientStockError is returned when a decrease would drive a product's
// stock negative. It names the product and both quantities so callers can
// report exactly which line was short.
type InsufficientStockError struct {
	Code      string
	Name      string
	Requested decimal.Decimal
	Available decimal.Decimal
	Unit      string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (codigo=%s): requested %s, available %s %s",
		e.Name, e.Code, e.Requested, e.Available, e.Unit)
}

func (e *InsufficientStockError) Is(target error) bool {
	_, ok := target.(*InsufficientStockError)
	return ok
}

// InvalidQuantityError is returned for a non-positive quantity, or a
// fractional quantity on a discrete unit
type InvalidQuantityError struct {
	Code     string
	Quantity decimal.Decimal
	Reason   string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity %s for product %s: %s", e.Quantity, e.Code, e.Reason)
}

func (e *InvalidQuantityError) Is(target error) bool {
	_, ok := target.(*InvalidQuantityError)
	return ok
}

// InvalidDiscountError is returned when a sale discount falls outside [0,100]
type InvalidDiscountError struct {
	Discount decimal.Decimal
}

func (e *InvalidDiscountError) Error() string {
	return fmt.Sprintf("invalid discount %s: must be a percentage between 0 and 100", e.Discount)
}

func (e *InvalidDiscountError) Is(target error) bool {
	_, ok := target.(*InvalidDiscountError)
	return ok
}

// InvalidProductError is returned when product validation fails
type InvalidProductError struct {
	Field  string
	Reason string
	Value  interface{}
}

func (e *InvalidProductError) Error() string {
	return fmt.Sprintf("invalid product: field=%s, reason=%s, value=%v", e.Field, e.Reason, e.Value)
}

func (e *InvalidProductError) Is(target error) bool {
	_, ok := target.(*InvalidProductError)
	return ok
}

// DuplicateUserError is returned when registering an already-taken username
type DuplicateUserError struct {
	Username string
}

func (e *DuplicateUserError) Error() string {
	return fmt.Sprintf("duplicate user: username=%s already exists", e.Username)
}

func (e *DuplicateUserError) Is(target error) bool {
	_, ok := target.(*DuplicateUserError)
	return ok
}

// InvalidUsernameError is returned when a username breaks the registration rules
type InvalidUsernameError struct {
	Username string
	Reason   string
}

func (e *InvalidUsernameError) Error() string {
	return fmt.Sprintf("invalid username %q: %s", e.Username, e.Reason)
}

func (e *InvalidUsernameError) Is(target error) bool {
	_, ok := target.(*InvalidUsernameError)
	return ok
}

// InvalidCredentialsError is returned when authentication fails. It does not
// distinguish a missing user from a wrong password.
type InvalidCredentialsError struct {
	Username string
}

func (e *InvalidCredentialsError) Error() string {
	return fmt.Sprintf("invalid credentials for user %s", e.Username)
}

func (e *InvalidCredentialsError) Is(target error) bool {
	_, ok := target.(*InvalidCredentialsError)
	return ok
}

// Helper functions for creating errors with context

func NewProductNotFoundError(code string) error {
	return &ProductNotFoundError{Code: code}
}

func NewDuplicateCodeError(code string) error {
	return &DuplicateCodeError{Code: code}
}

func NewDuplicateNameError(name string) error {
	return &DuplicateNameError{Name: name}
}

func NewInsufficientStockError(p Product, requested decimal.Decimal) error {
	return &InsufficientStockError{
		Code:      p.Code,
		Name:      p.Name,
		Requested: requested,
		Available: p.Stock,
		Unit:      p.Unit.Name,
	}
}

func NewInvalidQuantityError(code string, qty decimal.Decimal, reason string) error {
	return &InvalidQuantityError{Code: code, Quantity: qty, Reason: reason}
}

func NewInvalidDiscountError(discount decimal.Decimal) error {
	return &InvalidDiscountError{Discount: discount}
}

// NewInvalidProductError creates a new InvalidProductError
func NewInvalidProductError(field, reason string, value interface{}) error {
	return &InvalidProductError{
		Field:  field,
		Reason: reason,
		Value:  value,
	}
}

func NewDuplicateUserError(username string) error {
	return &DuplicateUserError{Username: username}
}

func NewInvalidUsernameError(username, reason string) error {
	return &InvalidUsernameError{Username: username, Reason: reason}
}

func NewInvalidCredentialsError(username string) error {
	return &InvalidCredentialsError{Username: username}
}

// Type assertion helpers for use with errors.As()

// IsProductNotFoundError checks if an error is a ProductNotFoundError
func IsProductNotFoundError(err error) bool {
	var pnf *ProductNotFoundError
	return errors.As(err, &pnf)
}

// IsDuplicateCodeError checks if an error is a DuplicateCodeError
func IsDuplicateCodeError(err error) bool {
	var dce *DuplicateCodeError
	return errors.As(err, &dce)
}

// IsDuplicateNameError checks if an error is a DuplicateNameError
func IsDuplicateNameError(err error) bool {
	var dne *DuplicateNameError
	return errors.As(err, &dne)
}

// IsInsufficientStockError checks if an error is an InsufficientStockError
func IsInsufficientStockError(err error) bool {
	var ise *InsufficientStockError
	return errors.As(err, &ise)
}

// IsInvalidQuantityError checks if an error is an InvalidQuantityError
func IsInvalidQuantityError(err error) bool {
	var iqe *InvalidQuantityError
	return errors.As(err, &iqe)
}

// IsInvalidProductError checks if an error is an InvalidProductError
func IsInvalidProductError(err error) bool {
	var ipe *InvalidProductError
	return errors.As(err, &ipe)
}

// IsInvalidCredentialsError checks if an error is an InvalidCredentialsError
func IsInvalidCredentialsError(err error) bool {
	var ice *InvalidCredentialsError
	return errors.As(err, &ice)
}
