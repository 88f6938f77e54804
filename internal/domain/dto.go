package domain

import (
	"github.com/google/uuid"
)

// DTOs for API responses. Timestamps are ISO 8601 strings.

// OrderDTO is the full order representation used by the detail view and the
// edit form.
type OrderDTO struct {
	ID                   uint          `json:"id"`
	Number               string        `json:"number"`
	OrderType            OrderType     `json:"orderType"`
	Status               OrderStatus   `json:"status"`
	StatusMeta           StatusMeta    `json:"statusMeta"`
	ContactID            *uuid.UUID    `json:"contactId,omitempty"`
	ContactName          string        `json:"contactName,omitempty"`
	LeadID               *uuid.UUID    `json:"leadId,omitempty"`
	LeadName             string        `json:"leadName,omitempty"`
	ClientCompanyID      *uuid.UUID    `json:"clientCompanyId,omitempty"`
	ClientCompanyName    string        `json:"clientCompanyName,omitempty"`
	ManagerID            string        `json:"managerId,omitempty"`
	ManagerName          string        `json:"managerName,omitempty"`
	ManufacturerID       *uuid.UUID    `json:"manufacturerId,omitempty"`
	ManufacturerName     string        `json:"manufacturerName,omitempty"`
	FinalAmount          *float64      `json:"finalAmount,omitempty"`
	PaymentStatus        PaymentStatus `json:"paymentStatus"`
	PartialPaymentAmount *float64      `json:"partialPaymentAmount,omitempty"`
	DeliveryAddress      string        `json:"deliveryAddress,omitempty"`
	Notes                string        `json:"notes,omitempty"`
	Files                []FileDTO     `json:"files,omitempty"`
	ClosingDate          *string       `json:"closingDate,omitempty"` // ISO 8601
	CreatedAt            string        `json:"createdAt"`             // ISO 8601
	UpdatedAt            string        `json:"updatedAt"`             // ISO 8601
}

// OrderCardDTO is the compact, denormalized shape rendered on a board card.
type OrderCardDTO struct {
	ID            uint          `json:"id"`
	Number        string        `json:"number"`
	OrderType     OrderType     `json:"orderType"`
	Status        OrderStatus   `json:"status"`
	StatusMeta    StatusMeta    `json:"statusMeta"`
	ContactName   string        `json:"contactName,omitempty"`
	ManagerName   string        `json:"managerName,omitempty"`
	FinalAmount   *float64      `json:"finalAmount,omitempty"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	CreatedAt     string        `json:"createdAt"` // ISO 8601
}

// BoardColumnDTO is one board column: a catalog status plus the ids of the
// orders currently in it. Empty columns are included.
type BoardColumnDTO struct {
	Status   OrderStatus `json:"status"`
	Label    string      `json:"label"`
	Color    string      `json:"color"`
	OrderIDs []uint      `json:"orderIds"`
}

// BoardDTO is the board payload for one order type: every catalog column in
// order, plus an id-keyed map of the cards.
type BoardDTO struct {
	OrderType OrderType             `json:"orderType"`
	Columns   []BoardColumnDTO      `json:"columns"`
	Orders    map[uint]OrderCardDTO `json:"orders"`
}

// StatusCatalogDTO describes one order type's catalog for the edit form's
// status selector.
type StatusCatalogDTO struct {
	OrderType OrderType         `json:"orderType"`
	Statuses  []StatusOptionDTO `json:"statuses"`
}

// StatusOptionDTO is one selectable status with its display metadata.
type StatusOptionDTO struct {
	Status   OrderStatus `json:"status"`
	Label    string      `json:"label"`
	Color    string      `json:"color"`
	Terminal bool        `json:"terminal"`
}

// OrderStatusHistoryDTO is one audit entry of an order's status trail.
type OrderStatusHistoryDTO struct {
	ID            uuid.UUID    `json:"id"`
	OrderID       uint         `json:"orderId"`
	FromStatus    *OrderStatus `json:"fromStatus,omitempty"`
	ToStatus      OrderStatus  `json:"toStatus"`
	ChangedByID   string       `json:"changedById"`
	ChangedByName string       `json:"changedByName,omitempty"`
	Note          string       `json:"note,omitempty"`
	ChangedAt     string       `json:"changedAt"` // ISO 8601
}

type LeadDTO struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	Phone            string     `json:"phone,omitempty"`
	Email            string     `json:"email,omitempty"`
	Source           string     `json:"source,omitempty"`
	Status           LeadStatus `json:"status"`
	AssignedToID     string     `json:"assignedToId,omitempty"`
	AssignedToName   string     `json:"assignedToName,omitempty"`
	Notes            string     `json:"notes,omitempty"`
	ConvertedOrderID *uint      `json:"convertedOrderId,omitempty"`
	CreatedAt        string     `json:"createdAt"` // ISO 8601
	UpdatedAt        string     `json:"updatedAt"` // ISO 8601
}

type ContactDTO struct {
	ID                uuid.UUID  `json:"id"`
	FirstName         string     `json:"firstName"`
	LastName          string     `json:"lastName"`
	FullName          string     `json:"fullName"`
	Email             string     `json:"email,omitempty"`
	Phone             string     `json:"phone,omitempty"`
	ClientCompanyID   *uuid.UUID `json:"clientCompanyId,omitempty"`
	ClientCompanyName string     `json:"clientCompanyName,omitempty"`
	Address           string     `json:"address,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	IsActive          bool       `json:"isActive"`
	CreatedAt         string     `json:"createdAt"` // ISO 8601
	UpdatedAt         string     `json:"updatedAt"` // ISO 8601
}

type ClientCompanyDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	OrgNumber string    `json:"orgNumber,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt string    `json:"createdAt"` // ISO 8601
	UpdatedAt string    `json:"updatedAt"` // ISO 8601
}

type ProductDTO struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	SKU          string     `json:"sku,omitempty"`
	Description  string     `json:"description,omitempty"`
	Price        float64    `json:"price"`
	SupplierID   *uuid.UUID `json:"supplierId,omitempty"`
	SupplierName string     `json:"supplierName,omitempty"`
	IsActive     bool       `json:"isActive"`
	CreatedAt    string     `json:"createdAt"` // ISO 8601
	UpdatedAt    string     `json:"updatedAt"` // ISO 8601
}

type SupplierDTO struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	ContactPerson string    `json:"contactPerson,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Email         string    `json:"email,omitempty"`
	Address       string    `json:"address,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     string    `json:"createdAt"` // ISO 8601
	UpdatedAt     string    `json:"updatedAt"` // ISO 8601
}

type TaskDTO struct {
	ID             uuid.UUID  `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Status         TaskStatus `json:"status"`
	DueDate        *string    `json:"dueDate,omitempty"` // ISO 8601
	AssignedToID   string     `json:"assignedToId,omitempty"`
	AssignedToName string     `json:"assignedToName,omitempty"`
	CreatedByID    string     `json:"createdById,omitempty"`
	OrderID        *uint      `json:"orderId,omitempty"`
	LeadID         *uuid.UUID `json:"leadId,omitempty"`
	CompletedAt    *string    `json:"completedAt,omitempty"` // ISO 8601
	CreatedAt      string     `json:"createdAt"`             // ISO 8601
	UpdatedAt      string     `json:"updatedAt"`             // ISO 8601
}

type FileDTO struct {
	ID          uuid.UUID `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	OrderID     *uint     `json:"orderId,omitempty"`
	UploadedBy  string    `json:"uploadedBy,omitempty"`
	CreatedAt   string    `json:"createdAt"` // ISO 8601
}

type NotificationDTO struct {
	ID         uuid.UUID `json:"id"`
	UserID     string    `json:"userId"`
	Type       string    `json:"type"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	Read       bool      `json:"read"`
	ReadAt     *string   `json:"readAt,omitempty"` // ISO 8601
	EntityID   string    `json:"entityId,omitempty"`
	EntityType string    `json:"entityType,omitempty"`
	CreatedAt  string    `json:"createdAt"` // ISO 8601
}

type UserDTO struct {
	ID          string       `json:"id"`
	Email       string       `json:"email"`
	DisplayName string       `json:"displayName"`
	FirstName   string       `json:"firstName,omitempty"`
	LastName    string       `json:"lastName,omitempty"`
	Role        UserRoleType `json:"role"`
	Phone       string       `json:"phone,omitempty"`
	IsActive    bool         `json:"isActive"`
	LastLoginAt *string      `json:"lastLoginAt,omitempty"` // ISO 8601
	CreatedAt   string       `json:"createdAt"`             // ISO 8601
}

// PaymentSummaryDTO aggregates payment figures across orders.
type PaymentSummaryDTO struct {
	TotalFinalAmount   float64                   `json:"totalFinalAmount"`
	TotalPaid          float64                   `json:"totalPaid"`
	TotalOutstanding   float64                   `json:"totalOutstanding"`
	CountByStatus      map[PaymentStatus]int64   `json:"countByStatus"`
	AmountByStatus     map[PaymentStatus]float64 `json:"amountByStatus"`
	MonthlyRevenue     []MonthlyRevenueDTO       `json:"monthlyRevenue"`
	OpenOrderCount     int64                     `json:"openOrderCount"`
	OverdueOrderCount  int64                     `json:"overdueOrderCount"`
}

// MonthlyRevenueDTO is revenue attributed to the month an order closed.
type MonthlyRevenueDTO struct {
	Month   string  `json:"month"` // YYYY-MM
	Revenue float64 `json:"revenue"`
	Orders  int64   `json:"orders"`
}

// PaginatedResponse wraps a page of results
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// NewPaginatedResponse builds the pagination envelope for a page of results.
func NewPaginatedResponse(data interface{}, total int64, page, pageSize int) PaginatedResponse {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return PaginatedResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// --- Request types ---

// CreateOrderRequest creates an order. At least one of ContactID/LeadID must
// be set; PartialPaymentAmount is required exactly when PaymentStatus is
// partially-paid (the only-if half is checked in the service).
type CreateOrderRequest struct {
	OrderType            OrderType     `json:"orderType" validate:"required,oneof=ready-made custom-made"`
	Status               *OrderStatus  `json:"status,omitempty"`
	ContactID            *uuid.UUID    `json:"contactId,omitempty" validate:"required_without=LeadID"`
	LeadID               *uuid.UUID    `json:"leadId,omitempty"`
	ClientCompanyID      *uuid.UUID    `json:"clientCompanyId,omitempty"`
	ManagerID            string        `json:"managerId,omitempty" validate:"max=100"`
	ManufacturerID       *uuid.UUID    `json:"manufacturerId,omitempty"`
	FinalAmount          *float64      `json:"finalAmount,omitempty" validate:"omitempty,gte=0"`
	PaymentStatus        PaymentStatus `json:"paymentStatus,omitempty" validate:"omitempty,oneof=unpaid partially-paid fully-paid refunded"`
	PartialPaymentAmount *float64      `json:"partialPaymentAmount,omitempty" validate:"required_if=PaymentStatus partially-paid,omitempty,gt=0"`
	DeliveryAddress      string        `json:"deliveryAddress,omitempty" validate:"max=500"`
	Notes                string        `json:"notes,omitempty"`
}

// UpdateOrderRequest updates order fields from the edit form. Nil pointers
// leave the field untouched.
type UpdateOrderRequest struct {
	OrderType            *OrderType     `json:"orderType,omitempty" validate:"omitempty,oneof=ready-made custom-made"`
	Status               *OrderStatus   `json:"status,omitempty"`
	ContactID            *uuid.UUID     `json:"contactId,omitempty"`
	LeadID               *uuid.UUID     `json:"leadId,omitempty"`
	ClientCompanyID      *uuid.UUID     `json:"clientCompanyId,omitempty"`
	ManagerID            *string        `json:"managerId,omitempty" validate:"omitempty,max=100"`
	ManufacturerID       *uuid.UUID     `json:"manufacturerId,omitempty"`
	FinalAmount          *float64       `json:"finalAmount,omitempty" validate:"omitempty,gte=0"`
	PaymentStatus        *PaymentStatus `json:"paymentStatus,omitempty" validate:"omitempty,oneof=unpaid partially-paid fully-paid refunded"`
	PartialPaymentAmount *float64       `json:"partialPaymentAmount,omitempty" validate:"omitempty,gt=0"`
	DeliveryAddress      *string        `json:"deliveryAddress,omitempty" validate:"omitempty,max=500"`
	Notes                *string        `json:"notes,omitempty"`
}

// MoveOrderRequest is a board drag: set the order's status to the
// destination column's status.
type MoveOrderRequest struct {
	Status  OrderStatus `json:"status" validate:"required"`
	ToIndex *int        `json:"toIndex,omitempty" validate:"omitempty,gte=0"`
	Note    string      `json:"note,omitempty" validate:"max=500"`
}

// RecordPaymentRequest records a payment against an order.
type RecordPaymentRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Note   string  `json:"note,omitempty" validate:"max=500"`
}

type CreateLeadRequest struct {
	Name         string `json:"name" validate:"required,max=200"`
	Phone        string `json:"phone,omitempty" validate:"max=50"`
	Email        string `json:"email,omitempty" validate:"omitempty,email"`
	Source       string `json:"source,omitempty" validate:"max=100"`
	AssignedToID string `json:"assignedToId,omitempty" validate:"max=100"`
	Notes        string `json:"notes,omitempty"`
}

type UpdateLeadRequest struct {
	Name         *string     `json:"name,omitempty" validate:"omitempty,max=200"`
	Phone        *string     `json:"phone,omitempty" validate:"omitempty,max=50"`
	Email        *string     `json:"email,omitempty" validate:"omitempty,email"`
	Source       *string     `json:"source,omitempty" validate:"omitempty,max=100"`
	Status       *LeadStatus `json:"status,omitempty" validate:"omitempty,oneof=new in_progress converted rejected"`
	AssignedToID *string     `json:"assignedToId,omitempty" validate:"omitempty,max=100"`
	Notes        *string     `json:"notes,omitempty"`
}

// ConvertLeadRequest turns a lead into an order of the given type.
type ConvertLeadRequest struct {
	OrderType       OrderType  `json:"orderType" validate:"required,oneof=ready-made custom-made"`
	ContactID       *uuid.UUID `json:"contactId,omitempty"`
	ClientCompanyID *uuid.UUID `json:"clientCompanyId,omitempty"`
	ManagerID       string     `json:"managerId,omitempty" validate:"max=100"`
	Notes           string     `json:"notes,omitempty"`
}

type CreateContactRequest struct {
	FirstName       string     `json:"firstName" validate:"required,max=100"`
	LastName        string     `json:"lastName" validate:"required,max=100"`
	Email           string     `json:"email,omitempty" validate:"omitempty,email"`
	Phone           string     `json:"phone,omitempty" validate:"max=50"`
	ClientCompanyID *uuid.UUID `json:"clientCompanyId,omitempty"`
	Address         string     `json:"address,omitempty" validate:"max=500"`
	Notes           string     `json:"notes,omitempty"`
}

type UpdateContactRequest struct {
	FirstName       *string    `json:"firstName,omitempty" validate:"omitempty,max=100"`
	LastName        *string    `json:"lastName,omitempty" validate:"omitempty,max=100"`
	Email           *string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone           *string    `json:"phone,omitempty" validate:"omitempty,max=50"`
	ClientCompanyID *uuid.UUID `json:"clientCompanyId,omitempty"`
	Address         *string    `json:"address,omitempty" validate:"omitempty,max=500"`
	Notes           *string    `json:"notes,omitempty"`
	IsActive        *bool      `json:"isActive,omitempty"`
}

type CreateClientCompanyRequest struct {
	Name      string `json:"name" validate:"required,max=200"`
	OrgNumber string `json:"orgNumber,omitempty" validate:"max=20"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     string `json:"phone,omitempty" validate:"max=50"`
	Address   string `json:"address,omitempty" validate:"max=500"`
	Notes     string `json:"notes,omitempty"`
}

type UpdateClientCompanyRequest struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,max=200"`
	OrgNumber *string `json:"orgNumber,omitempty" validate:"omitempty,max=20"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Address   *string `json:"address,omitempty" validate:"omitempty,max=500"`
	Notes     *string `json:"notes,omitempty"`
}

type CreateProductRequest struct {
	Name        string     `json:"name" validate:"required,max=200"`
	SKU         string     `json:"sku,omitempty" validate:"max=50"`
	Description string     `json:"description,omitempty"`
	Price       float64    `json:"price" validate:"gte=0"`
	SupplierID  *uuid.UUID `json:"supplierId,omitempty"`
}

type UpdateProductRequest struct {
	Name        *string    `json:"name,omitempty" validate:"omitempty,max=200"`
	SKU         *string    `json:"sku,omitempty" validate:"omitempty,max=50"`
	Description *string    `json:"description,omitempty"`
	Price       *float64   `json:"price,omitempty" validate:"omitempty,gte=0"`
	SupplierID  *uuid.UUID `json:"supplierId,omitempty"`
	IsActive    *bool      `json:"isActive,omitempty"`
}

type CreateSupplierRequest struct {
	Name          string `json:"name" validate:"required,max=200"`
	ContactPerson string `json:"contactPerson,omitempty" validate:"max=200"`
	Phone         string `json:"phone,omitempty" validate:"max=50"`
	Email         string `json:"email,omitempty" validate:"omitempty,email"`
	Address       string `json:"address,omitempty" validate:"max=500"`
	Notes         string `json:"notes,omitempty"`
}

type UpdateSupplierRequest struct {
	Name          *string `json:"name,omitempty" validate:"omitempty,max=200"`
	ContactPerson *string `json:"contactPerson,omitempty" validate:"omitempty,max=200"`
	Phone         *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Email         *string `json:"email,omitempty" validate:"omitempty,email"`
	Address       *string `json:"address,omitempty" validate:"omitempty,max=500"`
	Notes         *string `json:"notes,omitempty"`
	IsActive      *bool   `json:"isActive,omitempty"`
}

type CreateTaskRequest struct {
	Title        string     `json:"title" validate:"required,max=200"`
	Description  string     `json:"description,omitempty"`
	DueDate      *string    `json:"dueDate,omitempty"` // ISO 8601
	AssignedToID string     `json:"assignedToId,omitempty" validate:"max=100"`
	OrderID      *uint      `json:"orderId,omitempty"`
	LeadID       *uuid.UUID `json:"leadId,omitempty"`
}

type UpdateTaskRequest struct {
	Title        *string     `json:"title,omitempty" validate:"omitempty,max=200"`
	Description  *string     `json:"description,omitempty"`
	Status       *TaskStatus `json:"status,omitempty" validate:"omitempty,oneof=open in_progress done cancelled"`
	DueDate      *string     `json:"dueDate,omitempty"` // ISO 8601
	AssignedToID *string     `json:"assignedToId,omitempty" validate:"omitempty,max=100"`
}

type CreateNotificationRequest struct {
	UserID     string           `json:"userId" validate:"required,max=100"`
	Type       NotificationType `json:"type" validate:"required"`
	Title      string           `json:"title" validate:"required,max=200"`
	Message    string           `json:"message" validate:"required,max=500"`
	EntityID   string           `json:"entityId,omitempty" validate:"max=100"`
	EntityType string           `json:"entityType,omitempty" validate:"max=50"`
}

type UpdateUserRoleRequest struct {
	Role UserRoleType `json:"role" validate:"required,oneof=admin manager sales viewer"`
}
