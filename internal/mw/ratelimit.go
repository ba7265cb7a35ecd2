package mw

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter hands out one token bucket per key. Buckets idle for longer
// than idle are evicted by a background sweeper until Close is called.
type KeyedLimiter struct {
	limit rate.Limit
	burst int
	idle  time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket

	done      chan struct{}
	closeOnce sync.Once
}

func NewKeyedLimiter(limit rate.Limit, burst int, idle time.Duration) *KeyedLimiter {
	kl := &KeyedLimiter{
		limit:   limit,
		burst:   burst,
		idle:    idle,
		buckets: make(map[string]*bucket),
		done:    make(chan struct{}),
	}
	go kl.sweepLoop(idle / 4)
	return kl
}

// Allow takes one token from key's bucket.
func (kl *KeyedLimiter) Allow(key string) bool {
	kl.mu.Lock()
	b, ok := kl.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(kl.limit, kl.burst)}
		kl.buckets[key] = b
	}
	b.lastSeen = time.Now()
	kl.mu.Unlock()
	return b.lim.Allow()
}

// Len is the number of live buckets.
func (kl *KeyedLimiter) Len() int {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	return len(kl.buckets)
}

func (kl *KeyedLimiter) evict(now time.Time) {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	for key, b := range kl.buckets {
		if now.Sub(b.lastSeen) > kl.idle {
			delete(kl.buckets, key)
		}
	}
}

func (kl *KeyedLimiter) sweepLoop(every time.Duration) {
	if every <= 0 {
		every = time.Second
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-kl.done:
			return
		case now := <-t.C:
			kl.evict(now)
		}
	}
}

// Close stops the sweeper. Allow keeps working afterwards, without eviction.
func (kl *KeyedLimiter) Close() {
	kl.closeOnce.Do(func() { close(kl.done) })
}

// Middleware limits requests per client address and route template.
func (kl *KeyedLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		if !kl.Allow(c.RemoteIP() + " " + route) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
