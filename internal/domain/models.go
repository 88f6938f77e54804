package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns the primary key so inserts work the same against
// Postgres and the sqlite databases used in tests.
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// PaymentStatus represents how much of an order has been paid
type PaymentStatus string

const (
	PaymentStatusUnpaid    PaymentStatus = "unpaid"
	PaymentStatusPartial   PaymentStatus = "partially-paid"
	PaymentStatusFullyPaid PaymentStatus = "fully-paid"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// IsValid checks if the PaymentStatus is a valid enum value
func (ps PaymentStatus) IsValid() bool {
	switch ps {
	case PaymentStatusUnpaid, PaymentStatusPartial, PaymentStatusFullyPaid, PaymentStatusRefunded:
		return true
	}
	return false
}

// Order represents a furniture order. The status vocabulary is selected by
// Type: see StatusesFor. Orders keep the sequential integer ids the rest of
// the business (invoices, workshop labels) refers to.
type Order struct {
	ID                   uint           `gorm:"primaryKey;autoIncrement"`
	Number               string         `gorm:"type:varchar(50);unique;index"`
	Type                 OrderType      `gorm:"type:varchar(50);not null;index;column:order_type"`
	Status               OrderStatus    `gorm:"type:varchar(50);not null;index"`
	ContactID            *uuid.UUID     `gorm:"type:uuid;index;column:contact_id"`
	Contact              *Contact       `gorm:"foreignKey:ContactID"`
	LeadID               *uuid.UUID     `gorm:"type:uuid;index;column:lead_id"`
	Lead                 *Lead          `gorm:"foreignKey:LeadID"`
	ClientCompanyID      *uuid.UUID     `gorm:"type:uuid;index;column:client_company_id"`
	ClientCompany        *ClientCompany `gorm:"foreignKey:ClientCompanyID"`
	ManagerID            string         `gorm:"type:varchar(100);index;column:manager_id"`
	Manager              *User          `gorm:"foreignKey:ManagerID"`
	ManufacturerID       *uuid.UUID     `gorm:"type:uuid;column:manufacturer_id"`
	Manufacturer         *Supplier      `gorm:"foreignKey:ManufacturerID"`
	FinalAmount          *float64       `gorm:"type:decimal(15,2);column:final_amount"`
	PaymentStatus        PaymentStatus  `gorm:"type:varchar(50);not null;default:'unpaid';column:payment_status"`
	PartialPaymentAmount *float64       `gorm:"type:decimal(15,2);column:partial_payment_amount"`
	DeliveryAddress      string         `gorm:"type:varchar(500);column:delivery_address"`
	Notes                string         `gorm:"type:text"`
	Files                []File         `gorm:"foreignKey:OrderID"`
	ClosingDate          *time.Time     `gorm:"column:closing_date"`
	CreatedAt            time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt            time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// IsClosed reports whether the order sits in a terminal status.
func (o *Order) IsClosed() bool {
	return o.Status.IsTerminal()
}

// OrderStatusHistory tracks status changes for audit purposes
type OrderStatusHistory struct {
	ID            uuid.UUID    `gorm:"type:uuid;primary_key"`
	OrderID       uint         `gorm:"not null;index;column:order_id"`
	Order         *Order       `gorm:"foreignKey:OrderID"`
	FromStatus    *OrderStatus `gorm:"type:varchar(50);column:from_status"`
	ToStatus      OrderStatus  `gorm:"type:varchar(50);not null;column:to_status"`
	ChangedByID   string       `gorm:"type:varchar(100);not null;column:changed_by_id"`
	ChangedByName string       `gorm:"type:varchar(200);column:changed_by_name"`
	Note          string       `gorm:"type:text"`
	ChangedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP;column:changed_at"`
}

// TableName overrides the default table name to match the migration
func (OrderStatusHistory) TableName() string {
	return "order_status_history"
}

// BeforeCreate assigns the primary key for sqlite compatibility in tests.
func (h *OrderStatusHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

// LeadStatus represents the qualification status of a lead
type LeadStatus string

const (
	LeadStatusNew        LeadStatus = "new"
	LeadStatusInProgress LeadStatus = "in_progress"
	LeadStatusConverted  LeadStatus = "converted"
	LeadStatusRejected   LeadStatus = "rejected"
)

// IsValid checks if the LeadStatus is a valid enum value
func (ls LeadStatus) IsValid() bool {
	switch ls {
	case LeadStatusNew, LeadStatusInProgress, LeadStatusConverted, LeadStatusRejected:
		return true
	}
	return false
}

// Lead represents an incoming inquiry before it becomes an order
type Lead struct {
	BaseModel
	Name             string     `gorm:"type:varchar(200);not null;index"`
	Phone            string     `gorm:"type:varchar(50)"`
	Email            string     `gorm:"type:varchar(255)"`
	Source           string     `gorm:"type:varchar(100)"`
	Status           LeadStatus `gorm:"type:varchar(50);not null;default:'new';index"`
	AssignedToID     string     `gorm:"type:varchar(100);index;column:assigned_to_id"`
	AssignedTo       *User      `gorm:"foreignKey:AssignedToID"`
	Notes            string     `gorm:"type:text"`
	ConvertedOrderID *uint      `gorm:"column:converted_order_id"`
}

// Contact represents an individual client person
type Contact struct {
	BaseModel
	FirstName       string         `gorm:"type:varchar(100);not null;column:first_name"`
	LastName        string         `gorm:"type:varchar(100);not null;column:last_name"`
	Email           string         `gorm:"type:varchar(255);index"`
	Phone           string         `gorm:"type:varchar(50)"`
	ClientCompanyID *uuid.UUID     `gorm:"type:uuid;index;column:client_company_id"`
	ClientCompany   *ClientCompany `gorm:"foreignKey:ClientCompanyID"`
	Address         string         `gorm:"type:varchar(500)"`
	Notes           string         `gorm:"type:text"`
	IsActive        bool           `gorm:"not null;default:true;column:is_active"`
}

// FullName returns the contact's full name
func (c *Contact) FullName() string {
	return c.FirstName + " " + c.LastName
}

// ClientCompany represents a corporate client
type ClientCompany struct {
	BaseModel
	Name      string `gorm:"type:varchar(200);not null;index"`
	OrgNumber string `gorm:"type:varchar(20);index;column:org_number"`
	Email     string `gorm:"type:varchar(255)"`
	Phone     string `gorm:"type:varchar(50)"`
	Address   string `gorm:"type:varchar(500)"`
	Notes     string `gorm:"type:text"`
}

// TableName overrides the default table name to match the migration
func (ClientCompany) TableName() string {
	return "client_companies"
}

// Product represents an item from the catalog (ready-made orders reference these)
type Product struct {
	BaseModel
	Name        string     `gorm:"type:varchar(200);not null;index"`
	SKU         string     `gorm:"type:varchar(50);unique;column:sku"`
	Description string     `gorm:"type:text"`
	Price       float64    `gorm:"type:decimal(15,2);not null;default:0"`
	SupplierID  *uuid.UUID `gorm:"type:uuid;index;column:supplier_id"`
	Supplier    *Supplier  `gorm:"foreignKey:SupplierID"`
	IsActive    bool       `gorm:"not null;default:true;column:is_active"`
}

// Supplier represents a manufacturing partner or materials vendor
type Supplier struct {
	BaseModel
	Name          string `gorm:"type:varchar(200);not null;index"`
	ContactPerson string `gorm:"type:varchar(200);column:contact_person"`
	Phone         string `gorm:"type:varchar(50)"`
	Email         string `gorm:"type:varchar(255)"`
	Address       string `gorm:"type:varchar(500)"`
	Notes         string `gorm:"type:text"`
	IsActive      bool   `gorm:"not null;default:true;column:is_active"`
}

// TaskStatus represents the status of a task
type TaskStatus string

const (
	TaskStatusOpen       TaskStatus = "open"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// IsValid checks if the TaskStatus is a valid enum value
func (ts TaskStatus) IsValid() bool {
	switch ts {
	case TaskStatusOpen, TaskStatusInProgress, TaskStatusDone, TaskStatusCancelled:
		return true
	}
	return false
}

// Task represents a to-do item, optionally tied to an order or a lead
type Task struct {
	BaseModel
	Title        string     `gorm:"type:varchar(200);not null"`
	Description  string     `gorm:"type:text"`
	Status       TaskStatus `gorm:"type:varchar(50);not null;default:'open';index"`
	DueDate      *time.Time `gorm:"type:date;column:due_date"`
	AssignedToID string     `gorm:"type:varchar(100);index;column:assigned_to_id"`
	AssignedTo   *User      `gorm:"foreignKey:AssignedToID"`
	CreatedByID  string     `gorm:"type:varchar(100);column:created_by_id"`
	OrderID      *uint      `gorm:"index;column:order_id"`
	Order        *Order     `gorm:"foreignKey:OrderID"`
	LeadID       *uuid.UUID `gorm:"type:uuid;index;column:lead_id"`
	Lead         *Lead      `gorm:"foreignKey:LeadID"`
	CompletedAt  *time.Time `gorm:"column:completed_at"`
}

// File represents an uploaded file attached to an order
type File struct {
	BaseModel
	Filename    string `gorm:"type:varchar(255);not null"`
	ContentType string `gorm:"type:varchar(100);not null"`
	Size        int64  `gorm:"not null"`
	StoragePath string `gorm:"type:varchar(500);not null;unique"`
	OrderID     *uint  `gorm:"index;column:order_id"`
	Order       *Order `gorm:"foreignKey:OrderID"`
	UploadedBy  string `gorm:"type:varchar(100);column:uploaded_by"`
}

// NotificationType represents the type of notification
type NotificationType string

const (
	NotificationTypeTaskAssigned       NotificationType = "task_assigned"
	NotificationTypeTaskOverdue        NotificationType = "task_overdue"
	NotificationTypeOrderStatusChanged NotificationType = "order_status_changed"
	NotificationTypeOrderMoveFailed    NotificationType = "order_move_failed"
	NotificationTypeOrderStale         NotificationType = "order_stale"
	NotificationTypePaymentReceived    NotificationType = "payment_received"
	NotificationTypeLeadAssigned       NotificationType = "lead_assigned"
)

// Notification represents a user notification
type Notification struct {
	BaseModel
	UserID     string `gorm:"type:varchar(100);not null;index;column:user_id"`
	Type       string `gorm:"type:varchar(50);not null"`
	Title      string `gorm:"type:varchar(200);not null"`
	Message    string `gorm:"type:varchar(500);not null"`
	Read       bool   `gorm:"column:read;not null;default:false;index"`
	ReadAt     *time.Time
	EntityID   string `gorm:"type:varchar(100);column:entity_id"`
	EntityType string `gorm:"type:varchar(50);column:entity_type"`
}

// UserRoleType represents a role a user can have
type UserRoleType string

const (
	RoleAdmin   UserRoleType = "admin"
	RoleManager UserRoleType = "manager"
	RoleSales   UserRoleType = "sales"
	RoleViewer  UserRoleType = "viewer"
)

// IsValid checks if the UserRoleType is a valid enum value
func (r UserRoleType) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleSales, RoleViewer:
		return true
	}
	return false
}

// User represents a user in the system
type User struct {
	ID          string       `gorm:"type:varchar(100);primaryKey" json:"id"`
	Email       string       `gorm:"type:varchar(255);not null;unique" json:"email"`
	FirstName   string       `gorm:"type:varchar(100);column:first_name" json:"firstName,omitempty"`
	LastName    string       `gorm:"type:varchar(100);column:last_name" json:"lastName,omitempty"`
	DisplayName string       `gorm:"type:varchar(200);not null;column:name" json:"displayName"`
	Role        UserRoleType `gorm:"type:varchar(50);not null;default:'viewer'" json:"role"`
	Phone       string       `gorm:"type:varchar(50)" json:"phone,omitempty"`
	IsActive    bool         `gorm:"not null;default:true;column:is_active" json:"isActive"`
	LastLoginAt *time.Time   `gorm:"column:last_login_at" json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// FullName returns the user's full name, or display name if first/last not set
func (u *User) FullName() string {
	if u.FirstName != "" && u.LastName != "" {
		return u.FirstName + " " + u.LastName
	}
	return u.DisplayName
}

// NumberSequence backs the human-readable order numbers. One row per
// prefix/year; the repository increments LastSequence under a row lock.
type NumberSequence struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	Prefix       string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_sequence_prefix_year"`
	Year         int       `gorm:"not null;uniqueIndex:idx_sequence_prefix_year"`
	LastSequence int       `gorm:"not null;default:0;column:last_sequence"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}
