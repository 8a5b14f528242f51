// Package scheduler runs crawl work on a fixed pool of workers.
//
// A Pool owns an unbounded FIFO queue of Task values. Submit never blocks;
// workers dequeue and run one task at a time each, so global ordering is not
// preserved once more than one worker is running.
//
// Completion is explicit. Wait returns once every submitted task has
// returned, counting tasks submitted by running tasks, and Shutdown stops
// intake, drains the queue and waits for the workers to exit. No worker ever
// infers completion from an idle queue.
package scheduler
