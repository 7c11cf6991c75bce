package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// OnlyDigits strips everything but ASCII digits.
func OnlyDigits(v string) string {
	var b strings.Builder
	for _, r := range v {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatBRL renders a value as Brazilian currency, e.g. 1234.5 -> "R$ 1.234,50".
func FormatBRL(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	cents := int64(math.Round(v * 100))
	whole := strconv.FormatInt(cents/100, 10)

	var b strings.Builder
	for i := 0; i < len(whole); i++ {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteByte(whole[i])
	}
	return fmt.Sprintf("%sR$ %s,%02d", sign, b.String(), cents%100)
}

// FormatCEP groups a postal code as 5+3 once the 6th digit is present.
func FormatCEP(v string) string {
	d := OnlyDigits(v)
	if len(d) > 8 {
		d = d[:8]
	}
	if len(d) <= 5 {
		return d
	}
	return d[:5] + "-" + d[5:]
}

// FormatCPF progressively masks a tax id as 000.000.000-00.
func FormatCPF(v string) string {
	d := OnlyDigits(v)
	if len(d) > 11 {
		d = d[:11]
	}
	var b strings.Builder
	for i := 0; i < len(d); i++ {
		switch i {
		case 3, 6:
			b.WriteByte('.')
		case 9:
			b.WriteByte('-')
		}
		b.WriteByte(d[i])
	}
	return b.String()
}

// FormatPhoneBR progressively masks a phone number as (00) 00000-0000,
// producing partial formats for partial input.
func FormatPhoneBR(v string) string {
	d := OnlyDigits(v)
	if len(d) > 11 {
		d = d[:11]
	}
	switch {
	case len(d) == 0:
		return ""
	case len(d) <= 2:
		return "(" + d
	case len(d) <= 7:
		return "(" + d[:2] + ") " + d[2:]
	default:
		return "(" + d[:2] + ") " + d[2:7] + "-" + d[7:]
	}
}

// FormatMMSS renders a remaining duration as minutes:seconds, rounding up
// to whole seconds so the countdown never shows 00:00 while time remains.
func FormatMMSS(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
