package pipeio

import (
	"sync"
	"time"
)

// waitCond blocks on c until pred reports true or the timeout elapses,
// rechecking pred on every wake-up. The caller must hold c.L; it is held
// again on return. A non-positive timeout waits indefinitely.
//
// Timeouts are implemented by broadcasting on c from a timer, so unrelated
// waiters on the same condition variable may observe a spurious wake-up;
// every wait site in this package loops on its predicate for that reason.
func waitCond(c *sync.Cond, timeout time.Duration, pred func() bool) bool {
	if pred() {
		return true
	}
	if timeout <= 0 {
		for !pred() {
			c.Wait()
		}
		return true
	}
	deadline := time.Now().Add(timeout)
	timer := time.AfterFunc(timeout, c.Broadcast)
	defer timer.Stop()
	for !pred() {
		if !time.Now().Before(deadline) {
			return false
		}
		c.Wait()
	}
	return true
}
