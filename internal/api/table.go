// Package api maps request method names to handlers over the settings
// coordinator. Every method declares the field-group it works on and its
// handler receives only that group.
package api

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/comcastmike/rdkservices/internal/settings"
	"github.com/comcastmike/rdkservices/internal/util"
)

// ErrUnknownMethod is returned for names missing from the table.
var ErrUnknownMethod = errors.New("unknown method")

// Group is the field-group a method reads or writes.
type Group string

const (
	GroupVideo Group = "video"
	GroupAudio Group = "audio"
)

// VideoHandler handles a method of the video group.
type VideoHandler func(ctx context.Context, v *settings.VideoGroup, p Params) (Result, error)

// AudioHandler handles a method of the audio group.
type AudioHandler func(ctx context.Context, a *settings.AudioGroup, p Params) (Result, error)

// Method is one entry of the dispatch table. Exactly one of Video and
// Audio is set, matching Group.
type Method struct {
	Name  string
	Group Group
	Video VideoHandler
	Audio AudioHandler
}

func video(name string, h VideoHandler) Method {
	return Method{Name: name, Group: GroupVideo, Video: h}
}

func audio(name string, h AudioHandler) Method {
	return Method{Name: name, Group: GroupAudio, Audio: h}
}

// Table dispatches calls to the coordinator.
type Table struct {
	coordinator *settings.Coordinator
	methods     map[string]Method
}

// NewTable builds the dispatch table over a coordinator.
func NewTable(c *settings.Coordinator) *Table {
	t := &Table{
		coordinator: c,
		methods:     make(map[string]Method),
	}
	for _, m := range videoMethods() {
		t.methods[m.Name] = m
	}
	for _, m := range audioMethods() {
		t.methods[m.Name] = m
	}
	return t
}

// Lookup returns a method by name.
func (t *Table) Lookup(name string) (Method, bool) {
	m, ok := t.methods[name]
	return m, ok
}

// Methods returns every method sorted by name.
func (t *Table) Methods() []Method {
	out := make([]Method, 0, len(t.methods))
	for _, m := range t.methods {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Invoke runs one method. Successful results carry "success": true.
func (t *Table) Invoke(ctx context.Context, name string, params Params) (Result, error) {
	m, ok := t.methods[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownMethod, "%q", name)
	}
	if params == nil {
		params = Params{}
	}

	var (
		res Result
		err error
	)
	switch m.Group {
	case GroupVideo:
		res, err = m.Video(ctx, t.coordinator.Video, params)
	case GroupAudio:
		res, err = m.Audio(ctx, t.coordinator.Audio, params)
	default:
		return nil, errors.Errorf("method %s has no field-group", name)
	}
	if err != nil {
		util.GetLogger().Debug("Method failed", "method", name, "group", string(m.Group), "error", err)
		return nil, err
	}

	if res == nil {
		res = Result{}
	}
	res["success"] = true
	return res, nil
}
