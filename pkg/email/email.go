// Package email derives presentation values from email addresses.
package email

import (
	"strings"
	"unicode"
)

// DisplayName builds a readable name from the local part of an address:
// "ada.lovelace+lh@x.com" becomes "Ada Lovelace". It falls back to "User".
func DisplayName(address string) string {
	local := address
	if at := strings.IndexByte(address, '@'); at >= 0 {
		local = address[:at]
	}
	if plus := strings.IndexByte(local, '+'); plus >= 0 {
		local = local[:plus]
	}

	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-'
	})
	if len(parts) == 0 {
		return "User"
	}
	for i, p := range parts {
		parts[i] = capitalize(p)
	}
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
