package swish

import (
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

const maxMessageLen = 50

// formatAmount renders integer öre in Swish's decimal convention: two
// decimals with a comma separator, e.g. 57000 -> "570,00".
func formatAmount(cents int64) string {
	d := decimal.NewFromInt(cents).Div(decimal.NewFromInt(100))
	return strings.ReplaceAll(d.StringFixed(2), ".", ",")
}

// sanitizeMessage strips semicolons (the payload field separator) and caps
// the message length before URL-encoding.
func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, ";", "")
	if len(msg) > maxMessageLen {
		msg = msg[:maxMessageLen]
	}
	return msg
}

// buildPayload constructs the scannable Swish payload:
//
//	C<payee digits>;<amount with comma decimal>;<url-encoded message>;0
//
// The trailing 0 is the fixed edit-lock flag.
func buildPayload(payee string, amountCents int64, message string) string {
	return "C" + payee + ";" + formatAmount(amountCents) + ";" +
		url.QueryEscape(sanitizeMessage(message)) + ";0"
}

// buildDeeplink constructs the Swish app link carrying the same three fields
// as structured data.
func buildDeeplink(payee string, amountCents int64, message string) string {
	q := url.Values{}
	q.Set("sw", payee)
	q.Set("amt", formatAmount(amountCents))
	q.Set("msg", sanitizeMessage(message))
	return "https://app.swish.nu/1/p/sw/?" + q.Encode()
}
