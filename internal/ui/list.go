package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/crate/internal/services"
	"github.com/desertthunder/crate/internal/shared"
)

var (
	_ list.Item = savedTrackItem{}
)

// savedTrackItem wraps [services.SavedTrack] to implement [list.Item].
type savedTrackItem struct {
	saved services.SavedTrack
}

func (i savedTrackItem) FilterValue() string { return i.saved.Track.Title }
func (i savedTrackItem) Title() string       { return i.saved.Track.Title }
func (i savedTrackItem) Description() string {
	desc := fmt.Sprintf("%s • %s", i.saved.Track.Artist, shared.FormatDuration(i.saved.Track.Duration))
	if i.saved.Track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.saved.Track.Album)
	}
	return desc
}
