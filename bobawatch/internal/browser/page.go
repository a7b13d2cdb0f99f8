package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/hazyhaar/menuwatch/bobawatch/internal/probe"
)

const clickTimeout = 2 * time.Second

func (s *session) Navigate(ctx context.Context, url string) error {
	if err := s.page.Context(ctx).Navigate(url); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	return nil
}

func (s *session) WaitLoad(ctx context.Context) error {
	if err := s.page.Context(ctx).WaitLoad(); err != nil {
		return fmt.Errorf("browser: wait load: %w", err)
	}
	return nil
}

func (s *session) Title(ctx context.Context) (string, error) {
	info, err := s.page.Context(ctx).Info()
	if err != nil {
		return "", fmt.Errorf("browser: page info: %w", err)
	}
	return info.Title, nil
}

func (s *session) Reload(ctx context.Context) error {
	if err := s.page.Context(ctx).Reload(); err != nil {
		return fmt.Errorf("browser: reload: %w", err)
	}
	return nil
}

// Lookup uses ElementsX, which returns immediately instead of waiting for a
// match the way ElementX does.
func (s *session) Lookup(ctx context.Context, xpath string) (probe.Element, bool, error) {
	els, err := s.page.Context(ctx).ElementsX(xpath)
	if err != nil {
		return nil, false, fmt.Errorf("browser: xpath %s: %w", xpath, err)
	}
	if els.Empty() {
		return nil, false, nil
	}
	return element{el: els.First()}, true, nil
}

func (s *session) Screenshot(ctx context.Context) ([]byte, error) {
	data, err := s.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("browser: screenshot: %w", err)
	}
	return data, nil
}

func (s *session) HTML(ctx context.Context) (string, error) {
	doc, err := s.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("browser: html: %w", err)
	}
	return doc, nil
}

type element struct {
	el *rod.Element
}

func (e element) Attribute(ctx context.Context, name string) (string, bool, error) {
	v, err := e.el.Context(ctx).Attribute(name)
	if err != nil {
		return "", false, fmt.Errorf("browser: attribute %s: %w", name, err)
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

func (e element) Visible(ctx context.Context) (bool, error) {
	return e.el.Context(ctx).Visible()
}

func (e element) Click(ctx context.Context) error {
	return e.el.Context(ctx).Timeout(clickTimeout).Click(proto.InputMouseButtonLeft, 1)
}
