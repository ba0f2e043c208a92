package overlay

import "booking_automation/domain/entities"

// Category names
const (
	CategoryCookie      = "cookie_banner"
	CategoryCRM         = "crm_popup"
	CategoryPromotional = "promotional_popup"
	CategoryModal       = "modal"
)

var closeTargets = []entities.SelectorStrategy{
	entities.ByRole("button", `^\s*(×|x|close)\s*$`),
	entities.ByStructure(`[aria-label*="close"]`),
	entities.ByStructure(`[title*="close"]`),
	entities.ByStructure(`button[class*="close"]`),
	entities.ByStructure(`button[class*="dismiss"]`),
	entities.ByStructure(`.close-button`),
	entities.ByStructure(`[data-testid*="close"]`),
}

var acceptTargets = []entities.SelectorStrategy{
	entities.ByRole("button", "^accept"),
	entities.ByStructure(`[role="button"]:has-text("Accept")`),
}

// escalation tries a close button, then Escape, then a click on the overlay itself.
// Scoped close buttons are only looked up inside the detected overlay.
func escalation(targets []entities.SelectorStrategy, scoped bool) []entities.Dismissal {
	return []entities.Dismissal{
		{Kind: entities.DismissCloseButton, Targets: targets, Within: scoped},
		{Kind: entities.DismissEscapeKey},
		{Kind: entities.DismissClickSelf},
	}
}

// DefaultCategories returns the overlay families seen on the booking site, in priority order.
func DefaultCategories() []entities.OverlayCategory {
	return []entities.OverlayCategory{
		{
			Name:     CategoryCookie,
			Priority: 1,
			Detection: []entities.SelectorStrategy{
				entities.ByText("we value your privacy"),
				entities.ByStructure("#cmNotifyBanner"),
				entities.ByStructure(".cmNotifyBanner"),
				entities.ByStructure(`[id*="cookie"]`),
				entities.ByStructure(`[class*="cookie"]`),
				entities.ByStructure(`[data-testid*="cookie"]`),
			},
			Dismissals: escalation(acceptTargets, false),
		},
		{
			Name:     CategoryCRM,
			Priority: 2,
			Detection: []entities.SelectorStrategy{
				entities.ByStructure("#opti-crm-popup"),
				entities.ByStructure(".opti-overlay"),
				entities.ByStructure(`[data-testid*="popup"]`),
			},
			Dismissals: escalation(closeTargets, true),
		},
		{
			Name:     CategoryPromotional,
			Priority: 3,
			// containers come first so their close buttons are in scope
			Detection: []entities.SelectorStrategy{
				entities.ByStructure(`[class*="promo"]`),
				entities.ByStructure(`[class*="newsletter"]`),
				entities.ByStructure(`[class*="signup"]`),
				entities.ByText("sign up to win"),
				entities.ByText("win £500"),
				entities.ByText("sign up to our newsletter"),
			},
			Dismissals: escalation(closeTargets, true),
		},
		{
			Name:     CategoryModal,
			Priority: 4,
			Detection: []entities.SelectorStrategy{
				entities.ByRole("dialog", ""),
				entities.ByStructure(".modal"),
				entities.ByStructure(`[class*="modal"]`),
			},
			Dismissals: escalation(closeTargets[:2], true),
		},
	}
}
