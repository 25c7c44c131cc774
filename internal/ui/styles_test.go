package ui

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/samsaffron/quest-buddy/internal/testutil"
)

func TestDefaultTheme(t *testing.T) {
	theme := DefaultTheme()
	if theme.Error != Red {
		t.Errorf("expected Error=%q, got %q", Red, theme.Error)
	}
	if theme.UserMsgBg == "" {
		t.Errorf("UserMsgBg must be set")
	}
}

func TestNewStylesWithTheme(t *testing.T) {
	theme := DefaultTheme()
	theme.Primary = lipgloss.Color("#111111")
	s := NewStylesWithTheme(&bytes.Buffer{}, theme)
	if s.Theme().Primary != lipgloss.Color("#111111") {
		t.Errorf("expected Primary override, got %q", s.Theme().Primary)
	}
}

func TestFormatResult(t *testing.T) {
	s := NewStyles(&bytes.Buffer{})
	testutil.AssertContainsPlain(t, s.FormatResult(true, "Model loaded"), SuccessIcon+" Model loaded")
	testutil.AssertContainsPlain(t, s.FormatResult(false, "Load failed"), FailIcon+" Load failed")
}

func TestFormatMode(t *testing.T) {
	s := NewStyles(&bytes.Buffer{})
	testutil.AssertContainsPlain(t, s.FormatMode(true, "Offline"), LocalIcon+" Offline")
	testutil.AssertContainsPlain(t, s.FormatMode(false, "Online"), RemoteIcon+" Online")
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"abcdef", 3, "abc"},
		{"ヘッドセットの設定", 10, "ヘッド..."},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}
