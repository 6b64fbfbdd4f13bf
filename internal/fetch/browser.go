package fetch

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/buildscout/internal/config"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// forceLazyJS rewrites deferred image attributes so lazy-loaded images
// materialize without waiting for intersection observers.
const forceLazyJS = `(() => {
	document.querySelectorAll('img').forEach(img => {
		try {
			const ds = img.getAttribute('data-src') || img.getAttribute('data-original') || img.dataset.src || img.dataset.original;
			if (ds) img.src = ds;
			const dss = img.getAttribute('data-srcset') || img.dataset.srcset;
			if (dss && !img.src) img.src = dss.split(',')[0].trim().split(' ')[0];
		} catch (e) {}
	});
	return true;
})()`

// collectImagesJS gathers every DOM image's effective source plus the text
// context used for relevance scoring.
const collectImagesJS = `(() => {
	const out = [];
	document.querySelectorAll('img').forEach(img => {
		let src = img.getAttribute('src') || img.getAttribute('data-src') || img.getAttribute('data-original') || '';
		if (!src) {
			const ss = img.getAttribute('srcset') || '';
			if (ss) src = ss.split(',')[0].trim().split(' ')[0];
		}
		if (!src) return;
		let parent = '';
		try { parent = img.parentElement ? (img.parentElement.innerText || '') : ''; } catch (e) {}
		let caption = '';
		const fig = img.closest('figure');
		if (fig) {
			const fc = fig.querySelector('figcaption');
			if (fc) caption = fc.innerText || '';
		}
		out.push({
			src: src,
			alt: img.getAttribute('alt') || '',
			title: img.getAttribute('title') || '',
			parent: parent.slice(0, 400),
			caption: caption,
		});
	});
	return out;
})()`

// dismissConsentJS clicks the first visible accept button of common cookie
// dialogs. Best effort; failures are invisible.
const dismissConsentJS = `(() => {
	const labels = ['accept', 'aceptar', 'i accept', 'consent', 'agree'];
	const nodes = document.querySelectorAll('button, a, input[type="button"], input[type="submit"]');
	for (const el of nodes) {
		const text = ((el.innerText || el.value || '') + '').trim().toLowerCase();
		if (labels.some(l => text === l || text.startsWith(l + ' '))) {
			try { el.click(); return true; } catch (e) {}
		}
	}
	return false;
})()`

// Browser is a chromedp-backed Fetcher. One Chrome process is shared across
// navigations; each Fetch runs in its own tab, torn down on every exit path.
type Browser struct {
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	cfg           config.FetchConfig
}

// NewBrowser launches the shared browser process.
func NewBrowser(cfg config.FetchConfig) (*Browser, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.UserAgent(defaultUserAgent),
	)
	if cfg.UserDataDir != "" {
		// Reusing a persistent profile carries session cookies, which keeps
		// some image hosts from answering 401 for account-gated assets.
		opts = append(opts, chromedp.UserDataDir(cfg.UserDataDir))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Start the browser process eagerly so a missing Chrome binary surfaces
	// here instead of on the first request.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, eris.Wrap(err, "fetch: launch browser")
	}

	return &Browser{
		allocCtx:      allocCtx,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		cfg:           cfg,
	}, nil
}

// Close tears down the browser process.
func (b *Browser) Close() {
	b.browserCancel()
	b.allocCancel()
}

// Fetch navigates to url in a fresh tab and returns the rendered document.
// The tab and its network listener are released before returning, on every
// path, so no state leaks into the next navigation.
func (b *Browser) Fetch(ctx context.Context, rawURL string, opts ...NavOption) (*Page, error) {
	options := navOpts{}
	for _, opt := range opts {
		opt(&options)
	}

	tabCtx, tabCancel := chromedp.NewContext(b.browserCtx)
	defer tabCancel()

	timeout := time.Duration(b.cfg.NavTimeoutSecs) * time.Second
	tabCtx, timeoutCancel := context.WithTimeout(tabCtx, timeout)
	defer timeoutCancel()

	// Honor the caller's cancellation alongside the tab's own deadline.
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	var (
		netMu     sync.Mutex
		netClosed bool
		netImages = make(map[string]struct{})
	)
	if options.captureImages {
		chromedp.ListenTarget(tabCtx, func(ev any) {
			resp, ok := ev.(*network.EventResponseReceived)
			if !ok || resp.Type != network.ResourceTypeImage {
				return
			}
			if resp.Response == nil || resp.Response.Status != 200 {
				return
			}
			netMu.Lock()
			if !netClosed {
				netImages[stripFragmentAndQuery(resp.Response.URL)] = struct{}{}
			}
			netMu.Unlock()
		})
	}
	// The listener dies with the tab context; closing the collector first
	// guarantees nothing observed during teardown bleeds into the result.
	defer func() {
		netMu.Lock()
		netClosed = true
		netMu.Unlock()
	}()

	settle := time.Duration(b.cfg.SettleMillis) * time.Millisecond

	tasks := chromedp.Tasks{
		network.Enable(),
		chromedp.Navigate(rawURL),
	}
	if options.waitSelector != "" {
		tasks = append(tasks, waitForSelector(options.waitSelector, settle))
	} else {
		tasks = append(tasks, chromedp.Sleep(settle))
	}
	if options.dismissConsent {
		tasks = append(tasks, chromedp.Evaluate(dismissConsentJS, nil))
	}
	if options.captureImages {
		tasks = append(tasks, chromedp.Evaluate(forceLazyJS, nil))
	}
	if options.scrollPasses > 0 {
		tasks = append(tasks, scrollPasses(options.scrollPasses))
	}

	var (
		html     string
		finalURL string
		domRaw   []ImageElement
	)
	tasks = append(tasks, chromedp.Location(&finalURL))
	if options.captureImages {
		tasks = append(tasks, chromedp.Evaluate(collectImagesJS, &domRaw))
	}
	tasks = append(tasks, chromedp.OuterHTML("html", &html))

	if err := chromedp.Run(tabCtx, tasks); err != nil {
		return nil, eris.Wrapf(err, "fetch: navigate %s", rawURL)
	}

	page := &Page{URL: finalURL, HTML: html}
	if page.URL == "" {
		page.URL = rawURL
	}

	if options.captureImages {
		page.Images = resolveImageSources(domRaw, page.URL)
		netMu.Lock()
		for u := range netImages {
			page.NetworkImages = append(page.NetworkImages, u)
		}
		netMu.Unlock()
	}

	zap.L().Debug("fetch: page rendered",
		zap.String("url", rawURL),
		zap.Int("dom_images", len(page.Images)),
		zap.Int("network_images", len(page.NetworkImages)),
	)

	return page, nil
}

// waitForSelector waits for sel to become ready, but never fails the
// navigation: listing markup changes are absorbed by falling back to the
// settle delay.
func waitForSelector(sel string, fallback time.Duration) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		waitCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
		defer cancel()
		if err := chromedp.WaitReady(sel, chromedp.ByQuery).Do(waitCtx); err != nil {
			zap.L().Debug("fetch: wait selector timed out, settling instead",
				zap.String("selector", sel),
			)
			return chromedp.Sleep(fallback).Do(ctx)
		}
		return nil
	})
}

func scrollPasses(n int) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		for i := 0; i < n; i++ {
			if err := chromedp.Evaluate(`window.scrollBy(0, 1500); true`, nil).Do(ctx); err != nil {
				return err
			}
			if err := chromedp.Sleep(500 * time.Millisecond).Do(ctx); err != nil {
				return err
			}
		}
		return chromedp.Sleep(time.Second).Do(ctx)
	})
}

// resolveImageSources absolutizes DOM image sources against the page URL and
// drops entries that cannot be resolved.
func resolveImageSources(raw []ImageElement, pageURL string) []ImageElement {
	base, err := url.Parse(pageURL)
	if err != nil {
		return raw
	}
	out := make([]ImageElement, 0, len(raw))
	for _, img := range raw {
		src := strings.TrimSpace(img.Src)
		if src == "" {
			continue
		}
		ref, err := url.Parse(src)
		if err != nil {
			continue
		}
		img.Src = base.ResolveReference(ref).String()
		out = append(out, img)
	}
	return out
}

func stripFragmentAndQuery(raw string) string {
	if idx := strings.IndexAny(raw, "?#"); idx >= 0 {
		return raw[:idx]
	}
	return raw
}
