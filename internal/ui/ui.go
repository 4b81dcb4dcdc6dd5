// Package ui holds the small page helpers shared by the reconcilers:
// image URL checks and previews, tooltip placement, and the text-fit,
// scroll and alert capabilities the page depends on.
package ui

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/park285/arcadescore-live/internal/dom"
	"github.com/park285/arcadescore-live/internal/page"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

var ErrInvalidImageURL = errors.New("invalid image url")

var imageURLPattern = regexp.MustCompile(`^(https?://.*|/static/images/.*)$`)

// ValidateImageURL accepts absolute http(s) URLs and the server's
// /static/images/ paths.
func ValidateImageURL(raw string) error {
	if !imageURLPattern.MatchString(strings.TrimSpace(raw)) {
		return fmt.Errorf("%w: %q", ErrInvalidImageURL, raw)
	}
	return nil
}

// Prober checks that a URL serves an image.
type Prober interface {
	Probe(ctx context.Context, url string) error
}

// HTTPProber fetches the URL and requires a 2xx image/* response.
type HTTPProber struct {
	Client  *fasthttp.Client
	BaseURL string
	Timeout time.Duration
}

func NewHTTPProber(baseURL string) *HTTPProber {
	return &HTTPProber{
		Client:  &fasthttp.Client{ReadTimeout: 5 * time.Second, WriteTimeout: 5 * time.Second},
		BaseURL: strings.TrimRight(baseURL, "/"),
		Timeout: 5 * time.Second,
	}
}

func (p *HTTPProber) Probe(ctx context.Context, url string) error {
	if strings.HasPrefix(url, "/") {
		url = p.BaseURL + url
	}
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()
	req.Header.SetMethod(fasthttp.MethodGet)
	req.SetRequestURI(url)

	deadline := time.Now().Add(p.Timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := p.Client.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("probe image: %w", err)
	}
	if code := resp.StatusCode(); code < 200 || code >= 300 {
		return fmt.Errorf("probe image: status=%d", code)
	}
	if ct := string(resp.Header.ContentType()); !strings.HasPrefix(ct, "image/") {
		return fmt.Errorf("probe image: content-type %q", ct)
	}
	return nil
}

// Preview is the resolved state of an image preview element.
type Preview struct {
	URL     string
	Visible bool
}

// CheckPreview validates and probes url. Any failure yields a hidden preview.
func CheckPreview(ctx context.Context, p Prober, url string) Preview {
	url = strings.TrimSpace(url)
	if url == "" || ValidateImageURL(url) != nil {
		return Preview{}
	}
	if p != nil {
		if err := p.Probe(ctx, url); err != nil {
			return Preview{}
		}
	}
	return Preview{URL: url, Visible: true}
}

// Apply writes the preview onto img.
func (pv Preview) Apply(doc *dom.Document, img *html.Node) bool {
	if img == nil {
		return false
	}
	if !pv.Visible {
		return doc.SetStyleProp(img, "display", "none")
	}
	changed := doc.SetAttr(img, "src", pv.URL)
	return doc.SetStyleProp(img, "display", "block") || changed
}

// Rect is an element box in viewport coordinates.
type Rect struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Bottom() float64 { return r.Top + r.Height }

const tooltipGap, tooltipMargin = 8, 10

// TooltipPosition places a tooltip centered above target, kept inside the
// viewport horizontally, and flipped below when there is no room above.
func TooltipPosition(target Rect, tipWidth, tipHeight, viewportWidth float64) (top, left float64) {
	top = target.Top - tipHeight - tooltipGap
	left = target.Left + target.Width/2 - tipWidth/2
	if left < tooltipMargin {
		left = tooltipMargin
	}
	if maxLeft := viewportWidth - tipWidth - tooltipMargin; left > maxLeft {
		left = maxLeft
	}
	if top < tooltipMargin {
		top = target.Bottom() + tooltipGap
	}
	return top, left
}

// PlaceTooltip shows tip with text at the given position.
func PlaceTooltip(doc *dom.Document, tip *html.Node, text string, top, left float64) {
	if tip == nil {
		return
	}
	doc.SetText(tip, text)
	doc.SetStyle(tip, dom.ComposeStyle(dom.GetAttr(tip, "style"),
		dom.Declaration{Prop: "top", Value: fmt.Sprintf("%gpx", top)},
		dom.Declaration{Prop: "left", Value: fmt.Sprintf("%gpx", left)},
		dom.Declaration{Prop: "display", Value: "block"},
	))
}

// HideTooltip hides tip.
func HideTooltip(doc *dom.Document, tip *html.Node) {
	doc.SetStyleProp(tip, "display", "none")
}

// TextFitter shrinks text of the matched elements to fit their boxes.
type TextFitter interface {
	Fit(selector string, multiLine bool)
}

// Scroller scrolls an element to its top.
type Scroller interface {
	ScrollToTop(targetID string)
}

// Notifier shows a message to the user.
type Notifier interface {
	Alert(message string)
}

type NopFitter struct{}

func (NopFitter) Fit(string, bool) {}

// FitCards refits card titles and player names.
func FitCards(f TextFitter) {
	if f == nil {
		return
	}
	f.Fit(".game-title", true)
	f.Fit(".score-player-name", false)
}

// LogNotifier records alerts in the log only.
type LogNotifier struct{ Log *zap.Logger }

func (n LogNotifier) Alert(message string) {
	if n.Log != nil {
		n.Log.Info("alert", zap.String("message", message))
	}
}

// Broadcaster is implemented by *page.Page.
type Broadcaster interface {
	Broadcast(f page.Frame)
}

// Surface forwards capabilities to display clients as command frames.
type Surface struct {
	B   Broadcaster
	Log *zap.Logger
}

func (s Surface) Fit(selector string, multiLine bool) {
	s.B.Broadcast(page.Frame{Type: page.FrameTextFit, Selector: selector, MultiLine: multiLine})
}

func (s Surface) ScrollToTop(targetID string) {
	top := 0
	s.B.Broadcast(page.Frame{Type: page.FrameScroll, Target: targetID, Top: &top})
}

func (s Surface) Alert(message string) {
	LogNotifier{Log: s.Log}.Alert(message)
	s.B.Broadcast(page.Frame{Type: page.FrameAlert, Message: message})
}
