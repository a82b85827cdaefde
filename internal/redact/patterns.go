package redact

import (
	"regexp"
)

// Pattern is a built-in detector for one kind of personal data.
type Pattern struct {
	Name        string
	Regex       *regexp.Regexp
	Type        string // Placeholder prefix: [EMAIL:hash], [PHONE:hash], ...
	Description string
}

var (
	// Email addresses: taro@example.co.jp
	emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

	// Japanese phone numbers, hyphenated or not: 03-1234-5678, 090-1234-5678, 0120-123-456, 09012345678
	phoneRegex = regexp.MustCompile(`(?:\+81[-\s]?|\b0)\d{1,4}[-\s]?\d{1,4}[-\s]?\d{3,4}\b`)

	// Postal codes: 〒100-0001, 100-0001
	postalCodeRegex = regexp.MustCompile(`〒\s?\d{3}-?\d{4}|\b\d{3}-\d{4}\b`)

	// Individual Number (マイナンバー): 12 digits, optionally grouped by four
	myNumberRegex = regexp.MustCompile(`\b\d{4}[-\s]?\d{4}[-\s]?\d{4}\b`)

	// Credit card numbers: 16 digits grouped by four
	creditCardRegex = regexp.MustCompile(`\b(?:\d{4}[-\s]?){3}\d{4}\b`)

	// Bank account numbers introduced by 口座 or 口座番号: 口座番号1234567
	bankAccountRegex = regexp.MustCompile(`口座(?:番号)?[:：\s]*\d{7}`)
)

// BuiltInPatterns contains all available patterns keyed by name.
var BuiltInPatterns = map[string]Pattern{
	"email": {
		Name:        "email",
		Regex:       emailRegex,
		Type:        "EMAIL",
		Description: "Email addresses",
	},
	"phone": {
		Name:        "phone",
		Regex:       phoneRegex,
		Type:        "PHONE",
		Description: "Japanese phone numbers",
	},
	"postal_code": {
		Name:        "postal_code",
		Regex:       postalCodeRegex,
		Type:        "POSTAL",
		Description: "Japanese postal codes",
	},
	"my_number": {
		Name:        "my_number",
		Regex:       myNumberRegex,
		Type:        "MY_NUMBER",
		Description: "Individual Numbers (12 digits)",
	},
	"credit_card": {
		Name:        "credit_card",
		Regex:       creditCardRegex,
		Type:        "CC",
		Description: "Credit card numbers",
	},
	"bank_account": {
		Name:        "bank_account",
		Regex:       bankAccountRegex,
		Type:        "ACCOUNT",
		Description: "Bank account numbers",
	},
}

// patternOrder is the order patterns are applied in. Longer digit runs go
// first so a card number is not half-consumed as a phone number.
var patternOrder = []string{"email", "credit_card", "my_number", "bank_account", "phone", "postal_code"}

// DefaultPatterns returns the patterns enabled when none are configured.
func DefaultPatterns() []string {
	return []string{"email", "phone", "credit_card", "my_number"}
}
