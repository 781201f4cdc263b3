package audithttp

import (
	"context"

	"golang.org/x/sync/singleflight"
)

var timelineGroup singleflight.Group

// singleflightTimeline collapses concurrent identical timeline queries into a
// single repository round trip.
func singleflightTimeline(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error, bool) {
	resultChan := timelineGroup.DoChan(key, func() (interface{}, error) {
		return fn(ctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err(), false
	case res := <-resultChan:
		return res.Val, res.Err, res.Shared
	}
}
