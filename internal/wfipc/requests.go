package wfipc

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
)

// ListViewsInfo returns every view known to the compositor.
func ListViewsInfo(ctx context.Context, r Requester) ([]View, error) {
	var views []View
	if err := doDecode(ctx, r, ListViews{}, &views); err != nil {
		return nil, err
	}
	return views, nil
}

// OutputDetails returns the description of output id.
func OutputDetails(ctx context.Context, r Requester, id int) (Output, error) {
	var out Output
	if err := doDecode(ctx, r, OutputInfo{ID: id}, &out); err != nil {
		return Output{}, err
	}
	return out, nil
}

// Configure moves and resizes view id. Geometry is forwarded as given; the
// compositor decides what sizes it accepts.
func Configure(ctx context.Context, r Requester, id int, geometry Geometry) error {
	_, err := r.Do(ctx, ConfigureView{ID: id, Geometry: geometry})
	return err
}

// NextEvent performs one watch round trip and returns the delivered event.
func NextEvent(ctx context.Context, r Requester) (Event, error) {
	raw, err := r.Do(ctx, Watch{})
	if err != nil {
		return Event{}, err
	}
	return decodeEvent(raw), nil
}

func doDecode(ctx context.Context, r Requester, cmd Command, v any) error {
	raw, err := r.Do(ctx, cmd)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: decode %s response: %w", ErrMalformed, cmd.Method(), err)
	}
	return nil
}
