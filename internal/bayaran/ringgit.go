package bayaran

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.Malay)

// FormatRinggit renders an amount in sen as Malaysian Ringgit, e.g. RM1,234.50.
func FormatRinggit(sen int64) string {
	sign := ""
	if sen < 0 {
		sign = "-"
		sen = -sen
	}
	return sign + "RM" + printer.Sprintf("%d", sen/100) + fmt.Sprintf(".%02d", sen%100)
}
