// Package e2e exercises the full ingest, retrieval, and generation pipeline
// over a file-based documentation corpus.
package e2e

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CorpusDocument is one product-documentation file in the test corpus.
// FileName includes the extension; the on-disk bytes are built per format.
type CorpusDocument struct {
	FileName string
	Title    string
	Content  string
}

// QueryTestCase pairs a retrieval query with the source file(s) that must
// appear among the hits. At least one of ExpectedSources must match.
type QueryTestCase struct {
	Query           string
	ExpectedSources []string
	Description     string
}

// Corpus holds the documentation files and retrieval test cases.
type Corpus struct {
	Documents []CorpusDocument
	TestCases []QueryTestCase
}

// BuildCorpus returns a corpus of product documentation covering the surface a
// QA team would feed the knowledge base: checkout, accounts, catalog, API, and
// operations docs. Each document carries a signature phrase so retrieval test
// cases can assert the right file is returned. Extensions rotate through all
// supported formats.
func BuildCorpus() *Corpus {
	docs := buildDocuments()
	return &Corpus{
		Documents: docs,
		TestCases: buildQueryTestCases(docs),
	}
}

func buildDocuments() []CorpusDocument {
	topics := []struct {
		base    string
		title   string
		content string
	}{
		{"checkout-flow", "Checkout Flow", "The checkout flow has four steps: cart review, shipping, payment, and confirmation. Checkout flow validation blocks progressing with an empty cart."},
		{"discount-codes", "Discount Codes", "Discount codes are applied on the payment step. The discount code SAVE15 takes fifteen percent off orders above fifty dollars."},
		{"login-authentication", "Login and Authentication", "Users log in with email and password. Login authentication locks the account after five failed attempts."},
		{"cart-management", "Cart Management", "The cart keeps items for thirty days. Cart management merges guest carts into the account cart at login."},
		{"shipping-options", "Shipping Options", "Standard shipping takes five business days. Shipping options include express delivery for an extra fee."},
		{"payment-methods", "Payment Methods", "Payment methods cover credit card, wallet, and invoice. Card numbers are validated with the Luhn checksum before submission."},
		{"product-search", "Product Search", "Product search matches titles and descriptions. Search results are ranked by relevance and can be filtered by category."},
		{"profile-settings", "Profile Settings", "Profile settings let users change display name and avatar. Changing the email address requires re-verification."},
		{"notification-preferences", "Notification Preferences", "Notification preferences control order updates and marketing mail. Transactional notifications cannot be disabled."},
		{"order-history", "Order History", "Order history lists past purchases with status badges. Orders older than two years move to the archive tab."},
		{"returns-policy", "Returns and Refunds", "Returns are accepted within thirty days of delivery. Refunds are issued to the original payment method within five days."},
		{"wishlist-feature", "Wishlist", "The wishlist stores products for later. Wishlist items show a price drop badge when the price falls."},
		{"product-reviews", "Product Reviews", "Product reviews require a verified purchase. Reviews with profanity are held for moderation before publishing."},
		{"inventory-rules", "Inventory Rules", "Inventory counts update on order placement. Products with zero stock show an out of stock label and disable the buy button."},
		{"admin-dashboard", "Admin Dashboard", "The admin dashboard shows daily revenue and open orders. Dashboard access requires the operator role."},
		{"api-endpoints", "API Endpoints", "The public API exposes products, orders, and customers. API endpoints are versioned under the v1 prefix."},
		{"error-pages", "Error Pages", "Unknown routes render the not found page. Server errors render a retry page with an incident identifier."},
		{"accessibility-standards", "Accessibility", "All interactive controls are keyboard reachable. Accessibility labels are provided for screen readers on every form field."},
		{"session-handling", "Session Handling", "Sessions expire after two hours of inactivity. Session handling rotates the token on privilege changes."},
		{"password-reset", "Password Reset", "Password reset sends a single-use link valid for one hour. The reset link is invalidated after the password changes."},
		{"two-factor-auth", "Two-Factor Authentication", "Two-factor authentication supports authenticator apps. Recovery codes are shown once during enrollment."},
		{"email-verification", "Email Verification", "New accounts must verify their email before ordering. The verification mail can be resent at most three times per day."},
		{"address-book", "Address Book", "The address book stores up to ten delivery addresses. The default address preselects on the shipping step."},
		{"gift-cards", "Gift Cards", "Gift cards carry a sixteen digit code. Gift card balance applies before any other payment method."},
		{"loyalty-points", "Loyalty Points", "Loyalty points accrue at one point per dollar. Points expire twelve months after they were earned."},
		{"currency-display", "Currency Display", "Prices display in the local currency of the shopper. Currency conversion uses the daily exchange rate at cart time."},
		{"tax-calculation", "Tax Calculation", "Tax calculation depends on the delivery region. Digital goods apply the rate of the buyer country."},
		{"invoice-download", "Invoices", "Invoices are generated as PDF after payment. Invoice downloads stay available in order history."},
		{"subscription-billing", "Subscription Billing", "Subscriptions renew monthly on the signup day. Failed renewal retries three times before pausing the plan."},
		{"rate-limiting", "API Rate Limits", "The API allows sixty requests per minute per key. Rate limited responses return status 429 with a retry header."},
		{"webhook-delivery", "Webhook Delivery", "Webhooks notify external systems of order events. Webhook delivery retries with exponential backoff for one day."},
		{"file-uploads", "File Uploads", "Support tickets accept image attachments up to ten megabytes. Unsupported upload types are rejected with a clear message."},
		{"csv-export", "CSV Export", "Order lists export as CSV with a header row. CSV export respects the active filters and column selection."},
		{"audit-logging", "Audit Log", "The audit log records admin actions with actor and timestamp. Audit entries are immutable and kept for seven years."},
		{"role-permissions", "Roles and Permissions", "Roles bundle permissions for staff accounts. Permission changes take effect at the next login."},
		{"onboarding-tour", "Onboarding Tour", "First-time users see a guided onboarding tour. The tour can be dismissed and restarted from the help menu."},
		{"mobile-layout", "Mobile Layout", "The mobile layout collapses the navigation into a drawer. Checkout on mobile keeps the order summary pinned."},
		{"dark-mode", "Dark Mode", "Dark mode follows the system preference by default. The theme toggle persists the explicit choice per device."},
		{"localization-support", "Localization", "The storefront ships in twelve languages. Localization falls back to English for untranslated strings."},
		{"cookie-consent", "Cookie Consent", "The cookie consent banner blocks non-essential trackers. Consent choices are stored for six months."},
		{"account-deletion", "Account Deletion", "Account deletion anonymizes personal data within thirty days. Open orders block deletion until they complete."},
		{"search-filters", "Search Filters", "Search filters combine categories, price range, and rating. Active filters render as removable chips above the results."},
		{"result-sorting", "Result Sorting", "Results sort by relevance, price, or rating. The chosen sort order persists for the session."},
		{"pagination-behavior", "Pagination", "Result pages hold twenty four products each. Pagination preserves filters and sort order across pages."},
		{"product-variants", "Product Variants", "Variants cover size and color combinations. Selecting a variant updates price, stock, and gallery."},
		{"stock-alerts", "Stock Alerts", "Shoppers subscribe to stock alerts on sold out items. The alert mail sends once when stock returns."},
		{"order-tracking", "Order Tracking", "Order tracking shows carrier scans on a timeline. The tracking page refreshes automatically every minute."},
		{"support-chat", "Support Chat", "The support chat connects to an agent within two minutes. Chat transcripts are mailed after the conversation ends."},
	}

	out := make([]CorpusDocument, 0, len(topics))
	for i, tp := range topics {
		ext := SupportedFileExtensions[i%len(SupportedFileExtensions)]
		out = append(out, CorpusDocument{
			FileName: tp.base + ext,
			Title:    tp.title,
			Content:  tp.content,
		})
	}
	return out
}

func buildQueryTestCases(docs []CorpusDocument) []QueryTestCase {
	// Each phrase appears in exactly one document's content.
	phrases := []string{
		"checkout flow",
		"discount code SAVE15",
		"failed attempts",
		"guest carts",
		"express delivery",
		"Luhn checksum",
		"ranked by relevance",
		"requires re-verification",
		"Transactional notifications",
		"archive tab",
		"original payment method",
		"price drop badge",
		"verified purchase",
		"out of stock label",
		"operator role",
		"v1 prefix",
		"incident identifier",
		"screen readers",
		"rotates the token",
		"single-use link",
		"Recovery codes",
		"verification mail",
		"default address",
		"sixteen digit code",
		"Points expire",
		"daily exchange rate",
		"delivery region",
		"generated as PDF",
		"renew monthly",
		"sixty requests per minute",
		"exponential backoff",
		"image attachments",
		"header row",
		"actor and timestamp",
		"next login",
		"guided onboarding tour",
		"order summary pinned",
		"system preference",
		"untranslated strings",
		"non-essential trackers",
		"anonymizes personal data",
		"removable chips",
		"chosen sort order",
		"twenty four products",
		"size and color",
		"sold out items",
		"carrier scans",
		"Chat transcripts",
	}
	var cases []QueryTestCase
	used := make(map[string]bool)
	for _, p := range phrases {
		for _, d := range docs {
			if containsPhrase(d, p) && !used[d.FileName] {
				cases = append(cases, QueryTestCase{
					Query:           p,
					ExpectedSources: []string{d.FileName},
					Description:     fmt.Sprintf("query %q should surface %s", p, d.FileName),
				})
				used[d.FileName] = true
				break
			}
		}
	}
	return cases
}

func containsPhrase(d CorpusDocument, phrase string) bool {
	return strings.Contains(d.Title, phrase) || strings.Contains(d.Content, phrase)
}

// WriteFiles materializes every corpus document under dir in its target
// format and returns the written paths in corpus order.
func (c *Corpus) WriteFiles(dir string) ([]string, error) {
	paths := make([]string, 0, len(c.Documents))
	for _, d := range c.Documents {
		ext := filepath.Ext(d.FileName)
		body, err := BuildFileBytes(ext, d.Title+". "+d.Content)
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", d.FileName, err)
		}
		path := filepath.Join(dir, d.FileName)
		if err := os.WriteFile(path, body, 0644); err != nil {
			return nil, fmt.Errorf("write %s: %w", d.FileName, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
