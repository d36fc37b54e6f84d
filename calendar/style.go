package calendar

import "salonpro-crm/models"

// Style is the visual treatment of an appointment block.
type Style struct {
	Color         string  `json:"color"`
	Background    string  `json:"background"`
	StrikeThrough bool    `json:"strikeThrough"`
	Opacity       float64 `json:"opacity"`
}

var statusStyles = map[string]Style{
	models.OrderPending:   {Color: "#b45309", Background: "#fef3c7", Opacity: 1},
	models.OrderConfirmed: {Color: "#1d4ed8", Background: "#dbeafe", Opacity: 1},
	models.OrderCompleted: {Color: "#15803d", Background: "#dcfce7", Opacity: 1},
	models.OrderCancelled: {Color: "#b91c1c", Background: "#fee2e2", StrikeThrough: true, Opacity: 0.8},
	models.OrderNoShow:    {Color: "#7c2d12", Background: "#ffedd5", Opacity: 0.6},
	models.OrderDeleted:   {Color: "#6b7280", Background: "#f3f4f6", StrikeThrough: true, Opacity: 0.4},
}

// StyleFor maps an order status to its block style. Unknown statuses render
// like pending ones.
func StyleFor(status string) Style {
	if s, ok := statusStyles[status]; ok {
		return s
	}
	return statusStyles[models.OrderPending]
}
