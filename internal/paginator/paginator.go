// Package paginator holds page arithmetic and the inline navigation row used
// for long listings.
package paginator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot/models"
)

const DefaultPattern = "PAGE#%d"

// TotalPages returns how many pages of size fit total items.
func TotalPages(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Offset returns the first item index of a 1-based page.
func Offset(page, size int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * size
}

// Clamp keeps page inside [1, totalPages]. It returns 1 when there are no pages.
func Clamp(page, totalPages int) int {
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page
}

// ParsePage reads the page number from callback data built with pattern.
// Anything malformed or below 1 yields page 1.
func ParsePage(data, pattern string) int {
	prefix, _, _ := strings.Cut(pattern, "%d")
	n, err := strconv.Atoi(strings.TrimPrefix(data, prefix))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Keyboard builds the navigation row around current. No row is returned
// when there is a single page or none.
func Keyboard(totalPages, current int, pattern string) []models.InlineKeyboardButton {
	if totalPages <= 1 {
		return nil
	}
	if pattern == "" {
		pattern = DefaultPattern
	}
	current = Clamp(current, totalPages)

	button := func(label string, page int) models.InlineKeyboardButton {
		return models.InlineKeyboardButton{
			Text:         label,
			CallbackData: fmt.Sprintf(pattern, page),
		}
	}

	row := make([]models.InlineKeyboardButton, 0, 5)
	if current > 2 {
		row = append(row, button("« 1", 1))
	}
	if current > 1 {
		row = append(row, button(fmt.Sprintf("‹ %d", current-1), current-1))
	}
	row = append(row, button(fmt.Sprintf("· %d ·", current), current))
	if current < totalPages {
		row = append(row, button(fmt.Sprintf("%d ›", current+1), current+1))
	}
	if current < totalPages-1 {
		row = append(row, button(fmt.Sprintf("%d »", totalPages), totalPages))
	}
	return row
}
