// Package security keeps automated runs from committing a real booking.
package security

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"booking_automation/domain/entities"
	"booking_automation/domain/interfaces"
)

var (
	// purchaseControl matches controls that commit a purchase on any page.
	purchaseControl = regexp.MustCompile(`(?i)\b(pay|pay now|book now|buy( now)?|purchase|place (my )?order|confirm (and pay|booking|payment)|complete (booking|purchase))\b`)

	// submitControl matches controls that are only dangerous on a payment page.
	submitControl = regexp.MustCompile(`(?i)\b(submit|confirm|continue|order)\b`)

	paymentURLKeywords = []string{"payment", "checkout", "/pay", "purchase", "billing"}
)

// PaymentGuard refuses clicks that would pay for or confirm a booking
type PaymentGuard struct {
	logger logrus.FieldLogger
}

func NewPaymentGuard(logger logrus.FieldLogger) *PaymentGuard {
	return &PaymentGuard{logger: logger}
}

// Check blocks clicks on purchase controls anywhere, and on submit controls once the
// page is a payment page. Everything else passes.
func (g *PaymentGuard) Check(ctx context.Context, pageURL, target string, action entities.Action) error {
	if action.Type != entities.ActionClick && action.Type != entities.ActionPressKey {
		return nil
	}

	if purchaseControl.MatchString(target) {
		return g.block(pageURL, target, "purchase control")
	}
	if IsPaymentPage(pageURL) && (submitControl.MatchString(target) || action.Type == entities.ActionPressKey) {
		return g.block(pageURL, target, "submit on payment page")
	}
	return nil
}

func (g *PaymentGuard) block(pageURL, target, reason string) error {
	g.logger.WithFields(logrus.Fields{
		"url":    pageURL,
		"target": target,
	}).Warnf("Blocked %s", reason)
	return fmt.Errorf("%s %q: %w", reason, target, entities.ErrActionBlocked)
}

// IsPaymentPage reports whether url looks like a payment or checkout step
func IsPaymentPage(url string) bool {
	lower := strings.ToLower(url)
	for _, keyword := range paymentURLKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

var _ interfaces.ActionGuard = (*PaymentGuard)(nil)
