package browser

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/proto"
)

func TestBlockedTypes(t *testing.T) {
	blocked := blockedTypes([]string{"images", " Fonts "})

	cases := []struct {
		rt   proto.NetworkResourceType
		want bool
	}{
		{proto.NetworkResourceTypeImage, true},
		{proto.NetworkResourceTypeFont, true},
		{proto.NetworkResourceTypeMedia, false},
		{proto.NetworkResourceTypeStylesheet, false},
		{proto.NetworkResourceTypeDocument, false},
		{proto.NetworkResourceTypeScript, false},
		{proto.NetworkResourceTypeXHR, false},
	}
	for _, tc := range cases {
		if got := blocked[tc.rt]; got != tc.want {
			t.Errorf("blocked[%s] = %v, want %v", tc.rt, got, tc.want)
		}
	}
}

func TestBlockedTypes_Empty(t *testing.T) {
	if blocked := blockedTypes(nil); len(blocked) != 0 {
		t.Errorf("empty config blocks %v", blocked)
	}
	if blocked := blockedTypes([]string{"scripts"}); len(blocked) != 0 {
		t.Errorf("unknown group blocks %v", blocked)
	}
}

func TestBlockedTypes_AllGroups(t *testing.T) {
	blocked := blockedTypes([]string{"images", "fonts", "media", "stylesheets"})
	if len(blocked) != 4 {
		t.Errorf("blocked = %v, want 4 types", blocked)
	}
}

func TestLocalBin_Override(t *testing.T) {
	if got := LocalBin("  /opt/chrome/chrome "); got != "/opt/chrome/chrome" {
		t.Errorf("LocalBin = %q", got)
	}
}

func TestOpen_UnreachableRemote(t *testing.T) {
	f := NewFactory(Config{
		RemoteURL: "127.0.0.1:1",
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := f.Open(ctx)
	if err == nil {
		s.Close()
		t.Fatal("expected error for unreachable remote browser")
	}
}

func TestConfigDefaults(t *testing.T) {
	f := NewFactory(Config{})
	if f.cfg.Width != 1920 || f.cfg.Height != 1080 {
		t.Errorf("viewport = %dx%d, want 1920x1080", f.cfg.Width, f.cfg.Height)
	}
	if f.cfg.AcceptLanguage == "" {
		t.Error("AcceptLanguage not defaulted")
	}
	if f.cfg.Logger == nil {
		t.Error("Logger not defaulted")
	}
}

func TestSessionClose_Idempotent(t *testing.T) {
	s := &session{}
	if err := s.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
