package ai

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BatmanBruc/gembot/types"
)

type call struct {
	history types.History
	prompt  Prompt
	vision  bool
}

type fakeBackend struct {
	replies []string
	err     error
	calls   []call
}

func (f *fakeBackend) Generate(_ context.Context, history types.History, prompt Prompt, vision bool) (string, error) {
	h := make(types.History, len(history))
	copy(h, history)
	f.calls = append(f.calls, call{history: h, prompt: prompt, vision: vision})
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", nil
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r, nil
}

func newTestProvider(b Backend) *Provider {
	return NewProvider(b, Options{Timeout: time.Second}, nil)
}

func TestSendTextRecordsTurns(t *testing.T) {
	b := &fakeBackend{replies: []string{"Hi there", "Fine"}}
	s := newTestProvider(b).Open(nil)

	reply, err := s.SendText(context.Background(), "Hello")
	require.NoError(t, err)
	assert.Equal(t, "Hi there", reply)

	_, err = s.SendText(context.Background(), "How are you?")
	require.NoError(t, err)

	assert.Equal(t, types.History{
		{Role: types.RoleUser, Text: "Hello"},
		{Role: types.RoleModel, Text: "Hi there"},
		{Role: types.RoleUser, Text: "How are you?"},
		{Role: types.RoleModel, Text: "Fine"},
	}, s.History())
	require.Len(t, b.calls, 2)
	assert.Len(t, b.calls[1].history, 2)
	assert.False(t, b.calls[1].vision)
}

func TestOpenSeedsHistory(t *testing.T) {
	prior := types.History{
		{Role: types.RoleUser, Text: "a"},
		{Role: types.RoleModel, Text: "b"},
	}
	b := &fakeBackend{replies: []string{"c"}}
	s := newTestProvider(b).Open(prior)
	prior[0].Text = "changed"

	_, err := s.SendText(context.Background(), "next")
	require.NoError(t, err)
	assert.Equal(t, "a", b.calls[0].history[0].Text)
	assert.Equal(t, 4, s.Len())
}

func TestSendTextFailureLeavesHistory(t *testing.T) {
	b := &fakeBackend{err: errors.New("boom")}
	s := newTestProvider(b).Open(nil)

	_, err := s.SendText(context.Background(), "Hello")
	require.Error(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestEmptyReplyIsError(t *testing.T) {
	b := &fakeBackend{replies: []string{"   "}}
	s := newTestProvider(b).Open(nil)

	_, err := s.SendText(context.Background(), "Hello")
	assert.ErrorIs(t, err, ErrEmptyResponse)
	assert.Equal(t, 0, s.Len())
}

func TestTitleNotRecorded(t *testing.T) {
	b := &fakeBackend{replies: []string{"ok", "\"**Greetings**\"\nsecond line"}}
	s := newTestProvider(b).Open(nil)

	_, err := s.SendText(context.Background(), "Hello")
	require.NoError(t, err)

	title, err := s.Title(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Greetings", title)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, titlePrompt, b.calls[1].prompt.Text)
}

func TestSendImageOneShot(t *testing.T) {
	b := &fakeBackend{replies: []string{"a cat"}}
	s := newTestProvider(b).Open(types.History{{Role: types.RoleUser, Text: "x"}})

	reply, err := s.SendImage(context.Background(), testPNG(t, 20, 10), "")
	require.NoError(t, err)
	assert.Equal(t, "a cat", reply)

	require.Len(t, b.calls, 1)
	c := b.calls[0]
	assert.True(t, c.vision)
	assert.Empty(t, c.history)
	assert.Equal(t, defaultImagePrompt, c.prompt.Text)
	assert.Equal(t, "image/jpeg", c.prompt.ImageMIME)
	assert.NotEmpty(t, c.prompt.Image)
	assert.Equal(t, 1, s.Len())
}

func TestSendImageKeepsCaption(t *testing.T) {
	b := &fakeBackend{replies: []string{"ok"}}
	s := newTestProvider(b).Open(nil)

	_, err := s.SendImage(context.Background(), testPNG(t, 4, 4), "What is this?")
	require.NoError(t, err)
	assert.Equal(t, "What is this?", b.calls[0].prompt.Text)
}

func TestSendImageRejectsGarbage(t *testing.T) {
	b := &fakeBackend{replies: []string{"ok"}}
	s := newTestProvider(b).Open(nil)

	_, err := s.SendImage(context.Background(), []byte("not an image"), "")
	require.Error(t, err)
	assert.Empty(t, b.calls)
}

func TestClosedSession(t *testing.T) {
	s := newTestProvider(&fakeBackend{}).Open(nil)
	s.Close()
	s.Close()

	_, err := s.SendText(context.Background(), "Hello")
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = s.Title(context.Background())
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestRateLimitHonoursContext(t *testing.T) {
	b := &fakeBackend{replies: []string{"one", "two"}}
	p := NewProvider(b, Options{RatePerMinute: 1}, nil)
	s := p.Open(nil)

	_, err := s.SendText(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = s.SendText(ctx, "second")
	require.Error(t, err)
	assert.Len(t, b.calls, 1)
}

func TestCleanTitle(t *testing.T) {
	assert.Equal(t, "Plain", cleanTitle("  Plain  "))
	assert.Equal(t, "Heading", cleanTitle("# Heading"))
	assert.Len(t, []rune(cleanTitle(string(bytes.Repeat([]byte("a"), 300)))), 120)
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
