package ratelimiter_test

import (
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/tenancy/pkg/ratelimiter"
)

func TestSetHeaders(t *testing.T) {
	t.Parallel()
	reset := time.Now().Add(30 * time.Second)

	t.Run("allowed", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		ratelimiter.SetHeaders(rec, &ratelimiter.Result{Limit: 60, Count: 1, Remaining: 59, ResetAt: reset})

		assert.Equal(t, "60", rec.Header().Get(ratelimiter.HeaderLimit))
		assert.Equal(t, "59", rec.Header().Get(ratelimiter.HeaderRemaining))
		assert.Equal(t, strconv.FormatInt(reset.Unix(), 10), rec.Header().Get(ratelimiter.HeaderReset))
		assert.Empty(t, rec.Header().Get(ratelimiter.HeaderRetryAfter))
	})

	t.Run("denied", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		ratelimiter.SetHeaders(rec, &ratelimiter.Result{Limit: 60, Count: 61, Remaining: 0, ResetAt: reset})

		assert.Equal(t, "0", rec.Header().Get(ratelimiter.HeaderRemaining))
		secs, err := strconv.Atoi(rec.Header().Get(ratelimiter.HeaderRetryAfter))
		assert.NoError(t, err)
		assert.InDelta(t, 30, secs, 1)
	})

	t.Run("nil result", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		ratelimiter.SetHeaders(rec, nil)
		assert.Empty(t, rec.Header())
	})
}
