// Package utils содержит утилитарные функции, используемые в разных частях приложения
package utils

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
)

// UnknownDuration отображается, когда длительность трека еще не известна
const UnknownDuration = "--:--"

// FormatTime форматирует позицию воспроизведения в секундах в формат MM:SS
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// FormatDuration форматирует time.Duration в формат MM:SS или H:MM:SS
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// FormatSeconds форматирует длительность в секундах; 0 означает неизвестную длительность
func FormatSeconds(seconds int) string {
	if seconds <= 0 {
		return UnknownDuration
	}
	return FormatDuration(time.Duration(seconds) * time.Second)
}

// FormatFileSize форматирует размер файла в читаемом виде
func FormatFileSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}

// TruncateString обрезает строку до указанной ширины на экране, добавляя "..." если строка длиннее.
// Ширина считается по колонкам терминала, поэтому эфиопское письмо не разрезается посреди символа.
func TruncateString(s string, maxLen int) string {
	if runewidth.StringWidth(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return runewidth.Truncate(s, maxLen, "")
	}
	return runewidth.Truncate(s, maxLen, "...")
}

// PadRight обрезает и дополняет строку пробелами до указанной ширины
func PadRight(s string, width int) string {
	return runewidth.FillRight(TruncateString(s, width), width)
}
