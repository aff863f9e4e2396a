package ai

import (
	"bytes"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeImageShrinksLongSide(t *testing.T) {
	out, mime, err := NormalizeImage(testPNG(t, 200, 100), 50)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Width)
	assert.Equal(t, 25, cfg.Height)
}

func TestNormalizeImageKeepsSmall(t *testing.T) {
	out, _, err := NormalizeImage(testPNG(t, 30, 20), 50)
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Width)
	assert.Equal(t, 20, cfg.Height)
}

func TestNormalizeImageInvalid(t *testing.T) {
	_, _, err := NormalizeImage([]byte{0x00, 0x01}, 50)
	assert.Error(t, err)
}
