package paginator

import (
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
)

func labels(row []models.InlineKeyboardButton) []string {
	out := make([]string, 0, len(row))
	for _, b := range row {
		out = append(out, b.Text)
	}
	return out
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 3, TotalPages(23, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 0, TotalPages(5, 0))
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Offset(1, 10))
	assert.Equal(t, 20, Offset(3, 10))
	assert.Equal(t, 0, Offset(0, 10))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1, Clamp(0, 3))
	assert.Equal(t, 3, Clamp(9, 3))
	assert.Equal(t, 2, Clamp(2, 3))
	assert.Equal(t, 1, Clamp(4, 0))
}

func TestParsePage(t *testing.T) {
	assert.Equal(t, 4, ParsePage("PAGE#4", DefaultPattern))
	assert.Equal(t, 1, ParsePage("PAGE#abc", DefaultPattern))
	assert.Equal(t, 1, ParsePage("PAGE#0", DefaultPattern))
	assert.Equal(t, 1, ParsePage("PAGE#-2", DefaultPattern))
}

func TestKeyboardSinglePage(t *testing.T) {
	assert.Nil(t, Keyboard(1, 1, DefaultPattern))
	assert.Nil(t, Keyboard(0, 1, DefaultPattern))
}

func TestKeyboardLayout(t *testing.T) {
	cases := []struct {
		total, current int
		want           []string
	}{
		{3, 1, []string{"· 1 ·", "2 ›", "3 »"}},
		{3, 2, []string{"‹ 1", "· 2 ·", "3 ›"}},
		{3, 3, []string{"« 1", "‹ 2", "· 3 ·"}},
		{2, 1, []string{"· 1 ·", "2 ›"}},
		{7, 4, []string{"« 1", "‹ 3", "· 4 ·", "5 ›", "7 »"}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, labels(Keyboard(c.total, c.current, DefaultPattern)), "total=%d current=%d", c.total, c.current)
	}
}

func TestKeyboardCallbackData(t *testing.T) {
	row := Keyboard(5, 3, DefaultPattern)
	data := make([]string, 0, len(row))
	for _, b := range row {
		data = append(data, b.CallbackData)
	}
	assert.Equal(t, []string{"PAGE#1", "PAGE#2", "PAGE#3", "PAGE#4", "PAGE#5"}, data)
}
