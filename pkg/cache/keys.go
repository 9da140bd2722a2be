package cache

import (
	"fmt"
	"strings"
	"time"

	"StockBrief/pkg/util"
)

// Key joins parts with ":".
func Key(parts ...interface{}) string {
	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			b.WriteByte(':')
		}
		fmt.Fprint(&b, p)
	}
	return b.String()
}

// NewsKey scopes a ticker's news to one calendar day, so each day's run searches afresh.
func NewsKey(day time.Time, ticker string, limit int) string {
	return Key("news", util.FormatDate(day), strings.ToUpper(ticker), limit)
}

// RunLockKey names the lock held while a day's report is produced.
func RunLockKey(day time.Time) string {
	return Key("run", util.FormatDate(day))
}
