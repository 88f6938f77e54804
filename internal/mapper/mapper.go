package mapper

import (
	"fmt"
	"time"

	"github.com/woodline/crm-api/internal/board"
	"github.com/woodline/crm-api/internal/domain"
)

const timeFormat = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

// ToOrderDTO converts Order to OrderDTO. Denormalized names are filled from
// the preloaded associations when present.
func ToOrderDTO(order *domain.Order) domain.OrderDTO {
	dto := domain.OrderDTO{
		ID:                   order.ID,
		Number:               order.Number,
		OrderType:            order.Type,
		Status:               order.Status,
		ContactID:            order.ContactID,
		LeadID:               order.LeadID,
		ClientCompanyID:      order.ClientCompanyID,
		ManagerID:            order.ManagerID,
		ManufacturerID:       order.ManufacturerID,
		FinalAmount:          order.FinalAmount,
		PaymentStatus:        order.PaymentStatus,
		PartialPaymentAmount: order.PartialPaymentAmount,
		DeliveryAddress:      order.DeliveryAddress,
		Notes:                order.Notes,
		ClosingDate:          formatTimePtr(order.ClosingDate),
		CreatedAt:            formatTime(order.CreatedAt),
		UpdatedAt:            formatTime(order.UpdatedAt),
	}
	if meta, ok := domain.MetaFor(order.Status); ok {
		dto.StatusMeta = meta
	}
	if order.Contact != nil {
		dto.ContactName = order.Contact.FullName()
	}
	if order.Lead != nil {
		dto.LeadName = order.Lead.Name
	}
	if order.ClientCompany != nil {
		dto.ClientCompanyName = order.ClientCompany.Name
	}
	if order.Manager != nil {
		dto.ManagerName = order.Manager.FullName()
	}
	if order.Manufacturer != nil {
		dto.ManufacturerName = order.Manufacturer.Name
	}
	if len(order.Files) > 0 {
		dto.Files = make([]domain.FileDTO, len(order.Files))
		for i := range order.Files {
			dto.Files[i] = ToFileDTO(&order.Files[i])
		}
	}
	return dto
}

// ToOrderCardDTO converts Order to the compact card shape rendered on the
// board. Contact and manager names come from the preloaded associations; a
// card for an order tied only to a lead shows the lead's name instead.
func ToOrderCardDTO(order *domain.Order) domain.OrderCardDTO {
	card := domain.OrderCardDTO{
		ID:            order.ID,
		Number:        order.Number,
		OrderType:     order.Type,
		Status:        order.Status,
		FinalAmount:   order.FinalAmount,
		PaymentStatus: order.PaymentStatus,
		CreatedAt:     formatTime(order.CreatedAt),
	}
	if meta, ok := domain.MetaFor(order.Status); ok {
		card.StatusMeta = meta
	}
	switch {
	case order.Contact != nil:
		card.ContactName = order.Contact.FullName()
	case order.Lead != nil:
		card.ContactName = order.Lead.Name
	}
	if order.Manager != nil {
		card.ManagerName = order.Manager.FullName()
	}
	return card
}

// ToBoardDTO converts a board state into the API payload. Every catalog
// column is present, empty ones included.
func ToBoardDTO(state board.State) domain.BoardDTO {
	dto := domain.BoardDTO{
		OrderType: state.OrderType,
		Columns:   make([]domain.BoardColumnDTO, len(state.Columns)),
		Orders:    make(map[uint]domain.OrderCardDTO, len(state.Orders)),
	}
	for i, col := range state.Columns {
		column := domain.BoardColumnDTO{
			Status:   col.Status,
			OrderIDs: append([]uint{}, col.OrderIDs...),
		}
		if meta, ok := domain.MetaFor(col.Status); ok {
			column.Label = meta.Label
			column.Color = meta.Color
		}
		dto.Columns[i] = column
	}
	for id, card := range state.Orders {
		dto.Orders[id] = card
	}
	return dto
}

// ToStatusCatalogDTO lists one order type's statuses with display metadata,
// in workflow order.
func ToStatusCatalogDTO(orderType domain.OrderType) domain.StatusCatalogDTO {
	statuses := domain.StatusesFor(orderType)
	dto := domain.StatusCatalogDTO{
		OrderType: orderType,
		Statuses:  make([]domain.StatusOptionDTO, len(statuses)),
	}
	for i, status := range statuses {
		option := domain.StatusOptionDTO{
			Status:   status,
			Terminal: status.IsTerminal(),
		}
		if meta, ok := domain.MetaFor(status); ok {
			option.Label = meta.Label
			option.Color = meta.Color
		}
		dto.Statuses[i] = option
	}
	return dto
}

// ToOrderStatusHistoryDTO converts one status trail entry
func ToOrderStatusHistoryDTO(entry *domain.OrderStatusHistory) domain.OrderStatusHistoryDTO {
	return domain.OrderStatusHistoryDTO{
		ID:            entry.ID,
		OrderID:       entry.OrderID,
		FromStatus:    entry.FromStatus,
		ToStatus:      entry.ToStatus,
		ChangedByID:   entry.ChangedByID,
		ChangedByName: entry.ChangedByName,
		Note:          entry.Note,
		ChangedAt:     formatTime(entry.ChangedAt),
	}
}

// ToLeadDTO converts Lead to LeadDTO
func ToLeadDTO(lead *domain.Lead) domain.LeadDTO {
	dto := domain.LeadDTO{
		ID:               lead.ID,
		Name:             lead.Name,
		Phone:            lead.Phone,
		Email:            lead.Email,
		Source:           lead.Source,
		Status:           lead.Status,
		AssignedToID:     lead.AssignedToID,
		Notes:            lead.Notes,
		ConvertedOrderID: lead.ConvertedOrderID,
		CreatedAt:        formatTime(lead.CreatedAt),
		UpdatedAt:        formatTime(lead.UpdatedAt),
	}
	if lead.AssignedTo != nil {
		dto.AssignedToName = lead.AssignedTo.FullName()
	}
	return dto
}

// ToContactDTO converts Contact to ContactDTO
func ToContactDTO(contact *domain.Contact) domain.ContactDTO {
	dto := domain.ContactDTO{
		ID:              contact.ID,
		FirstName:       contact.FirstName,
		LastName:        contact.LastName,
		FullName:        contact.FullName(),
		Email:           contact.Email,
		Phone:           contact.Phone,
		ClientCompanyID: contact.ClientCompanyID,
		Address:         contact.Address,
		Notes:           contact.Notes,
		IsActive:        contact.IsActive,
		CreatedAt:       formatTime(contact.CreatedAt),
		UpdatedAt:       formatTime(contact.UpdatedAt),
	}
	if contact.ClientCompany != nil {
		dto.ClientCompanyName = contact.ClientCompany.Name
	}
	return dto
}

// ToClientCompanyDTO converts ClientCompany to ClientCompanyDTO
func ToClientCompanyDTO(company *domain.ClientCompany) domain.ClientCompanyDTO {
	return domain.ClientCompanyDTO{
		ID:        company.ID,
		Name:      company.Name,
		OrgNumber: company.OrgNumber,
		Email:     company.Email,
		Phone:     company.Phone,
		Address:   company.Address,
		Notes:     company.Notes,
		CreatedAt: formatTime(company.CreatedAt),
		UpdatedAt: formatTime(company.UpdatedAt),
	}
}

// ToProductDTO converts Product to ProductDTO
func ToProductDTO(product *domain.Product) domain.ProductDTO {
	dto := domain.ProductDTO{
		ID:          product.ID,
		Name:        product.Name,
		SKU:         product.SKU,
		Description: product.Description,
		Price:       product.Price,
		SupplierID:  product.SupplierID,
		IsActive:    product.IsActive,
		CreatedAt:   formatTime(product.CreatedAt),
		UpdatedAt:   formatTime(product.UpdatedAt),
	}
	if product.Supplier != nil {
		dto.SupplierName = product.Supplier.Name
	}
	return dto
}

// ToSupplierDTO converts Supplier to SupplierDTO
func ToSupplierDTO(supplier *domain.Supplier) domain.SupplierDTO {
	return domain.SupplierDTO{
		ID:            supplier.ID,
		Name:          supplier.Name,
		ContactPerson: supplier.ContactPerson,
		Phone:         supplier.Phone,
		Email:         supplier.Email,
		Address:       supplier.Address,
		Notes:         supplier.Notes,
		IsActive:      supplier.IsActive,
		CreatedAt:     formatTime(supplier.CreatedAt),
		UpdatedAt:     formatTime(supplier.UpdatedAt),
	}
}

// ToTaskDTO converts Task to TaskDTO
func ToTaskDTO(task *domain.Task) domain.TaskDTO {
	dto := domain.TaskDTO{
		ID:           task.ID,
		Title:        task.Title,
		Description:  task.Description,
		Status:       task.Status,
		DueDate:      formatTimePtr(task.DueDate),
		AssignedToID: task.AssignedToID,
		CreatedByID:  task.CreatedByID,
		OrderID:      task.OrderID,
		LeadID:       task.LeadID,
		CompletedAt:  formatTimePtr(task.CompletedAt),
		CreatedAt:    formatTime(task.CreatedAt),
		UpdatedAt:    formatTime(task.UpdatedAt),
	}
	if task.AssignedTo != nil {
		dto.AssignedToName = task.AssignedTo.FullName()
	}
	return dto
}

// ToFileDTO converts File to FileDTO
func ToFileDTO(file *domain.File) domain.FileDTO {
	return domain.FileDTO{
		ID:          file.ID,
		Filename:    file.Filename,
		ContentType: file.ContentType,
		Size:        file.Size,
		OrderID:     file.OrderID,
		UploadedBy:  file.UploadedBy,
		CreatedAt:   formatTime(file.CreatedAt),
	}
}

// ToNotificationDTO converts Notification to NotificationDTO
func ToNotificationDTO(notification *domain.Notification) domain.NotificationDTO {
	return domain.NotificationDTO{
		ID:         notification.ID,
		UserID:     notification.UserID,
		Type:       notification.Type,
		Title:      notification.Title,
		Message:    notification.Message,
		Read:       notification.Read,
		ReadAt:     formatTimePtr(notification.ReadAt),
		EntityID:   notification.EntityID,
		EntityType: notification.EntityType,
		CreatedAt:  formatTime(notification.CreatedAt),
	}
}

// ToUserDTO converts User to UserDTO
func ToUserDTO(user *domain.User) domain.UserDTO {
	return domain.UserDTO{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Role:        user.Role,
		Phone:       user.Phone,
		IsActive:    user.IsActive,
		LastLoginAt: formatTimePtr(user.LastLoginAt),
		CreatedAt:   formatTime(user.CreatedAt),
	}
}

// FormatError wraps a repository error with entity/operation context
func FormatError(entity, operation string, err error) error {
	return fmt.Errorf("failed to %s %s: %w", operation, entity, err)
}
