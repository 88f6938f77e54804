package service

import "errors"

// Common service errors
var (
	// ErrPermissionDenied is returned when a user doesn't have permission for an action
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrUnauthorized is returned when user is not authenticated
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUserNotFound is returned when a user is not found
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidRole is returned when an invalid role type is provided
	ErrInvalidRole = errors.New("invalid role type")

	// ErrStatusNotInCatalog is returned when a status is set that does not
	// belong to the order type's catalog
	ErrStatusNotInCatalog = errors.New("status not in catalog for order type")

	// ErrMissingContactOrLead is returned when an order is created with
	// neither a contact nor a source lead
	ErrMissingContactOrLead = errors.New("order requires a contact or a source lead")

	// ErrPartialAmountRequired is returned when payment status is
	// partially-paid without a partial payment amount
	ErrPartialAmountRequired = errors.New("partial payment amount required for partially-paid status")

	// ErrPartialAmountForbidden is returned when a partial payment amount
	// is set with a payment status other than partially-paid
	ErrPartialAmountForbidden = errors.New("partial payment amount only valid for partially-paid status")

	// ErrManufacturerNotAllowed is returned when a ready-made order names a
	// manufacturer; only custom-made orders have one
	ErrManufacturerNotAllowed = errors.New("manufacturer only valid for custom-made orders")

	// ErrNotificationNotOwned is returned when a user touches a
	// notification that belongs to someone else
	ErrNotificationNotOwned = errors.New("notification belongs to another user")

	// ErrLeadAlreadyConverted is returned when converting a lead that
	// already produced an order
	ErrLeadAlreadyConverted = errors.New("lead already converted")

	// ErrSupplierInUse is returned when deleting a supplier with open
	// production orders
	ErrSupplierInUse = errors.New("supplier has open production orders")
)
