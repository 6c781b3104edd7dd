package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// orderNumberAttempts bounds how often CreateOrder regenerates a colliding number.
const orderNumberAttempts = 3

var newOrderNumber = NewOrderNumber

// NewOrderNumber returns a human-facing order number such as BSP-20261019-3F9A1C.
func NewOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("BSP-%s-%s", now.Format("20060102"), suffix)
}
