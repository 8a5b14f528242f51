package crawler

import (
	"context"
	"errors"

	"github.com/nao1215/spidersearch/internal/fetcher"
	"github.com/nao1215/spidersearch/internal/model"
)

// crawlTask processes one link with depth levels of links still to follow.
// hops counts the redirects that led to link.
type crawlTask struct {
	c     *Controller
	run   *run
	link  model.Link
	depth int
	hops  int
}

// Run implements scheduler.Task.
func (t *crawlTask) Run(ctx context.Context) {
	c, log := t.c, t.run.logger.With("link", t.link.String(), "depth", t.depth)

	res := c.fetcher.Fetch(ctx, t.link)
	t.run.tally.outcome(res.Outcome.String())

	switch res.Outcome {
	case fetcher.OutcomeOK:
	case fetcher.OutcomeRedirect:
		t.redirect(res.Location)
		return
	case fetcher.OutcomeNonText:
		log.Debug("skipped non-text document")
		return
	default:
		if errors.Is(res.Err, context.Canceled) {
			return
		}
		log.Info("fetch failed", "outcome", res.Outcome.String(), "status", res.StatusCode, "error", res.Err)
		return
	}
	if res.Text == "" {
		return
	}
	t.run.tally.pagesFetched.Add(1)

	t.index(ctx, res.Text)

	if t.depth > 0 {
		t.expand(res.Text)
	}
}

// index writes the document and its term frequencies.
func (t *crawlTask) index(ctx context.Context, text string) {
	c, log := t.c, t.run.logger

	url := t.link.String()
	docID, err := c.store.AddDocument(ctx, url)
	if err != nil {
		t.storageFailed("add_document")
		log.Warn("failed to index document", "link", url, "error", err)
		return
	}
	t.run.tally.pagesIndexed.Add(1)
	c.recorder.PageIndexed()

	words := c.tokenizer.Tokenize(text)
	for word, count := range words {
		termID, err := c.store.AddTerm(ctx, word)
		if err != nil {
			t.storageFailed("add_term")
			log.Warn("failed to index term", "link", url, "word", word, "error", err)
			continue
		}
		if err := c.store.UpsertFrequency(ctx, docID, termID, count); err != nil {
			t.storageFailed("upsert_frequency")
			log.Warn("failed to write frequency", "link", url, "word", word, "error", err)
			continue
		}
		t.run.tally.termsWritten.Add(1)
		c.recorder.TermWritten()
	}
	log.Debug("indexed page", "link", url, "words", len(words))
}

// expand submits every extracted link one level shallower.
func (t *crawlTask) expand(text string) {
	c := t.c
	for _, link := range c.extractor.Extract(text, t.link) {
		t.submit(&crawlTask{c: c, run: t.run, link: link, depth: t.depth - 1})
	}
}

// redirect submits the target at the same depth unless the hop limit is reached.
func (t *crawlTask) redirect(target model.Link) {
	t.run.tally.redirects.Add(1)
	if t.hops >= t.c.maxRedirects {
		t.run.tally.redirectsDropped.Add(1)
		t.c.recorder.RedirectDropped()
		t.run.logger.Info("redirect chain dropped",
			"link", t.link.String(),
			"target", target.String(),
			"hops", t.hops+1,
		)
		return
	}
	t.run.logger.Debug("following redirect", "link", t.link.String(), "target", target.String())
	t.submit(&crawlTask{c: t.c, run: t.run, link: target, depth: t.depth, hops: t.hops + 1})
}

func (t *crawlTask) submit(next *crawlTask) {
	if err := t.c.pool.Submit(next); err != nil {
		t.run.logger.Debug("link not queued", "link", next.link.String(), "error", err)
		return
	}
	if next.hops == 0 {
		t.run.tally.linksQueued.Add(1)
	}
}

func (t *crawlTask) storageFailed(op string) {
	t.run.tally.storageErrors.Add(1)
	t.c.recorder.StorageError(op)
}
