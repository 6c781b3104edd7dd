package services

import (
	"fmt"

	"github.com/kendall-kelly/atelier-api/models"
)

// StatusMessage is the customer-facing text for a status change.
type StatusMessage struct {
	Title string
	Body  string
}

var statusMessages = map[models.BespokeStatus]StatusMessage{
	models.BespokeConsultation: {
		Title: "Consultation scheduled",
		Body:  "Your bespoke order %s is ready for a consultation. Our tailor will contact you to arrange a time.",
	},
	models.BespokeMeasurement: {
		Title: "Measurements in progress",
		Body:  "We are taking and recording the measurements for your bespoke order %s.",
	},
	models.BespokeDesign: {
		Title: "Design stage",
		Body:  "Your bespoke order %s has moved to the design stage. We are preparing the pattern and style details.",
	},
	models.BespokeFabricSelection: {
		Title: "Fabric selection",
		Body:  "It is time to choose the fabric for your bespoke order %s.",
	},
	models.BespokeProduction: {
		Title: "In production",
		Body:  "Good news: your bespoke order %s is now being made by our tailors.",
	},
	models.BespokeFitting: {
		Title: "Ready for fitting",
		Body:  "Your bespoke order %s is ready for a fitting. Please book a visit to the atelier.",
	},
	models.BespokeFinalAdjustments: {
		Title: "Final adjustments",
		Body:  "We are making the final adjustments to your bespoke order %s.",
	},
	models.BespokeCompleted: {
		Title: "Order completed",
		Body:  "Your bespoke order %s is finished and will be ready for collection or delivery shortly.",
	},
	models.BespokeDelivered: {
		Title: "Order delivered",
		Body:  "Your bespoke order %s has been delivered. Thank you for choosing our atelier.",
	},
	models.BespokeCancelled: {
		Title: "Order cancelled",
		Body:  "Your bespoke order %s has been cancelled. Please contact us if you have any questions.",
	},
}

// MessageForStatus returns the notification text for an order entering status.
// Status arrives as a plain string at the edges, so anything without a
// template gets the generic message.
func MessageForStatus(status, orderNumber string) StatusMessage {
	tmpl, ok := statusMessages[models.BespokeStatus(status)]
	if !ok {
		return StatusMessage{
			Title: "Order update",
			Body:  fmt.Sprintf("Your bespoke order %s has moved to a new stage.", orderNumber),
		}
	}
	return StatusMessage{Title: tmpl.Title, Body: fmt.Sprintf(tmpl.Body, orderNumber)}
}
