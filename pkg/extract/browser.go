package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"

	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// storyDetailsJS reads the current story's runtime config out of the preview
// runtime once the store has settled. Serialized through JSON inside the
// page so functions and DOM references degrade to null instead of failing
// the evaluation.
const storyDetailsJS = `
(async () => {
  const preview = window.__STORYBOOK_PREVIEW__;
  if (!preview || !preview.storyStore) {
    throw new Error("preview runtime not found");
  }
  if (preview.ready) {
    await preview.ready();
  }
  const store = preview.storyStore;
  if (store.cacheAllCSFFiles) {
    await store.cacheAllCSFFiles();
  }
  const id = new URLSearchParams(window.location.search).get("id");
  const story = await store.loadStory({ storyId: id });
  const ctx = store.getStoryContext(story);
  const seen = new WeakSet();
  return JSON.parse(JSON.stringify({
    args: ctx.initialArgs || ctx.args || {},
    argTypes: ctx.argTypes || {},
    parameters: ctx.parameters || {},
  }, (key, value) => {
    if (typeof value === "function") return "[Function]";
    if (typeof value === "object" && value !== null) {
      if (seen.has(value)) return undefined;
      seen.add(value);
    }
    return value;
  }));
})()
`

// browserIntrospector drives a shared headless browser. One allocator and
// one tab are reused across stories; navigation swaps the story in place.
type browserIntrospector struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	logger      *slog.Logger
}

func newBrowserIntrospector(logger *slog.Logger) (introspector, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("mute-audio", true),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	// Launch eagerly so a missing or broken browser surfaces here instead of
	// on the first story.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, err
	}

	return &browserIntrospector{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		logger:      logger,
	}, nil
}

// StoryDetails navigates the preview iframe to the story and evaluates the
// runtime store. The caller's ctx bounds the whole operation.
func (b *browserIntrospector) StoryDetails(ctx context.Context, baseURL, storyID string) (*StoryDetails, error) {
	previewURL := fmt.Sprintf("%s/iframe.html?id=%s&viewMode=story",
		baseURL, url.QueryEscape(storyID))

	runCtx, cancel := mergeDeadline(b.tabCtx, ctx)
	defer cancel()

	var raw json.RawMessage
	err := chromedp.Run(runCtx,
		chromedp.Navigate(previewURL),
		chromedp.Evaluate(storyDetailsJS, &raw, func(p *cdpruntime.EvaluateParams) *cdpruntime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect story %s: %w", storyID, err)
	}

	var details StoryDetails
	if err := json.Unmarshal(raw, &details); err != nil {
		return nil, fmt.Errorf("unexpected introspection payload for %s: %w", storyID, err)
	}
	return &details, nil
}

func (b *browserIntrospector) Close() {
	b.tabCancel()
	b.allocCancel()
}

// mergeDeadline bounds the browser tab context with the caller's deadline.
func mergeDeadline(tabCtx, callerCtx context.Context) (context.Context, context.CancelFunc) {
	if deadline, ok := callerCtx.Deadline(); ok {
		return context.WithDeadline(tabCtx, deadline)
	}
	return context.WithCancel(tabCtx)
}
