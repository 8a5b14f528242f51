// Package crawler drives a crawl: it fetches a link, indexes the words of
// the page and submits the page's links back to the scheduler one level
// shallower, until every branch reaches depth zero.
//
// # Components
//
//   - Controller: owns the collaborators and starts a run with Crawl
//   - crawlTask: one link at one remaining depth, executed by a pool worker
//   - Stats: counters of a finished run
//
// # Redirects
//
// A redirect is not a failure. The target is submitted as a new task at the
// same depth with its hop count incremented. A chain longer than the hop
// limit is dropped, so a redirect loop cannot keep the crawl alive.
//
// # Failures
//
// Fetch failures abandon the branch. Storage failures are logged and the
// affected page or word is skipped; the crawl continues.
//
// There is no cycle detection. A page reachable at two depths is fetched
// twice and its frequencies are overwritten by the later visit.
//
// # Usage
//
//	pool := scheduler.New(scheduler.WithWorkers(8))
//	_ = pool.Start(ctx)
//	defer pool.Shutdown()
//
//	c := crawler.New(pool, fetcher.New(), store)
//	stats, err := c.Crawl(ctx, seed, 2)
package crawler
