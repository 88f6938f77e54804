package domain

// OrderType discriminates which status vocabulary applies to an order.
type OrderType string

const (
	OrderTypeReadyMade  OrderType = "ready-made"
	OrderTypeCustomMade OrderType = "custom-made"
)

// IsValid checks if the OrderType is a valid enum value
func (t OrderType) IsValid() bool {
	switch t {
	case OrderTypeReadyMade, OrderTypeCustomMade:
		return true
	}
	return false
}

// OrderTypes lists all order types in display order.
func OrderTypes() []OrderType {
	return []OrderType{OrderTypeReadyMade, OrderTypeCustomMade}
}

// NumberPrefix returns the order-number prefix for the type ("RM" or "CM").
func (t OrderType) NumberPrefix() string {
	if t == OrderTypeCustomMade {
		return "CM"
	}
	return "RM"
}

// OrderStatus represents a step in an order's workflow. Which statuses are
// valid for a given order is determined by the order's type: see StatusesFor.
type OrderStatus string

// Ready-made workflow.
const (
	StatusNew                  OrderStatus = "new"
	StatusAwaitingConfirmation OrderStatus = "awaiting_confirmation"
	StatusAwaitingPayment      OrderStatus = "awaiting_payment"
	StatusPaid                 OrderStatus = "paid"
	StatusHandedToAssembly     OrderStatus = "handed_to_assembly"
	StatusReadyToShip          OrderStatus = "ready_to_ship"
	StatusInDelivery           OrderStatus = "in_delivery"
)

// Custom-made workflow.
const (
	StatusNewRequest           OrderStatus = "new_request"
	StatusPreliminaryEstimate  OrderStatus = "preliminary_estimate"
	StatusDrawingApproval      OrderStatus = "drawing_approval"
	StatusAwaitingMeasurement  OrderStatus = "awaiting_measurement"
	StatusMeasurementDone      OrderStatus = "measurement_done"
	StatusDesign               OrderStatus = "design"
	StatusProjectApproval      OrderStatus = "project_approval"
	StatusAwaitingDeposit      OrderStatus = "awaiting_deposit"
	StatusInProduction         OrderStatus = "in_production"
	StatusReadyForInstallation OrderStatus = "ready_for_installation"
	StatusInstallation         OrderStatus = "installation"
)

// Shared terminal statuses.
const (
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

var readyMadeStatuses = []OrderStatus{
	StatusNew,
	StatusAwaitingConfirmation,
	StatusAwaitingPayment,
	StatusPaid,
	StatusHandedToAssembly,
	StatusReadyToShip,
	StatusInDelivery,
	StatusCompleted,
	StatusCancelled,
}

var customMadeStatuses = []OrderStatus{
	StatusNewRequest,
	StatusPreliminaryEstimate,
	StatusDrawingApproval,
	StatusAwaitingMeasurement,
	StatusMeasurementDone,
	StatusDesign,
	StatusProjectApproval,
	StatusAwaitingDeposit,
	StatusInProduction,
	StatusReadyForInstallation,
	StatusInstallation,
	StatusCompleted,
	StatusCancelled,
}

// StatusesFor returns the ordered status catalog for an order type. The
// board builds its columns from this list (including empty ones) and the
// edit form uses it to populate the status selector. Returns nil for an
// unknown type; callers must validate the type first.
func StatusesFor(t OrderType) []OrderStatus {
	switch t {
	case OrderTypeReadyMade:
		return append([]OrderStatus(nil), readyMadeStatuses...)
	case OrderTypeCustomMade:
		return append([]OrderStatus(nil), customMadeStatuses...)
	}
	return nil
}

// DefaultStatus returns the first catalog entry for an order type, used for
// newly created orders and for auto-correcting the status after a type change.
func DefaultStatus(t OrderType) OrderStatus {
	statuses := StatusesFor(t)
	if len(statuses) == 0 {
		return ""
	}
	return statuses[0]
}

// ValidFor reports whether the status belongs to the catalog of the given
// order type.
func (s OrderStatus) ValidFor(t OrderType) bool {
	for _, candidate := range StatusesFor(t) {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status closes the order. Terminal orders
// keep their closing date and cannot be moved on the board.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// StatusMeta carries the display metadata for a status. The table below is
// the single source for labels and colors; the frontend renders from it
// instead of switching on raw status strings.
type StatusMeta struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

var statusMeta = map[OrderStatus]StatusMeta{
	StatusNew:                  {Label: "New", Color: "#64748b"},
	StatusAwaitingConfirmation: {Label: "Awaiting confirmation", Color: "#f59e0b"},
	StatusAwaitingPayment:      {Label: "Awaiting payment", Color: "#f97316"},
	StatusPaid:                 {Label: "Paid", Color: "#22c55e"},
	StatusHandedToAssembly:     {Label: "Handed to assembly", Color: "#8b5cf6"},
	StatusReadyToShip:          {Label: "Ready to ship", Color: "#06b6d4"},
	StatusInDelivery:           {Label: "In delivery", Color: "#3b82f6"},
	StatusNewRequest:           {Label: "New request", Color: "#64748b"},
	StatusPreliminaryEstimate:  {Label: "Preliminary estimate", Color: "#f59e0b"},
	StatusDrawingApproval:      {Label: "Drawing approval", Color: "#eab308"},
	StatusAwaitingMeasurement:  {Label: "Awaiting measurement", Color: "#f97316"},
	StatusMeasurementDone:      {Label: "Measurement done", Color: "#84cc16"},
	StatusDesign:               {Label: "Design", Color: "#a855f7"},
	StatusProjectApproval:      {Label: "Project approval", Color: "#eab308"},
	StatusAwaitingDeposit:      {Label: "Awaiting deposit", Color: "#f97316"},
	StatusInProduction:         {Label: "In production", Color: "#8b5cf6"},
	StatusReadyForInstallation: {Label: "Ready for installation", Color: "#06b6d4"},
	StatusInstallation:         {Label: "Installation", Color: "#3b82f6"},
	StatusCompleted:            {Label: "Completed", Color: "#16a34a"},
	StatusCancelled:            {Label: "Cancelled", Color: "#dc2626"},
}

// MetaFor returns the display metadata for a status. The second return is
// false for statuses outside both catalogs.
func MetaFor(s OrderStatus) (StatusMeta, bool) {
	meta, ok := statusMeta[s]
	return meta, ok
}
