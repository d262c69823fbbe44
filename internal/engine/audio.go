package engine

import (
	"fmt"

	"github.com/fluentia/exam-engine/internal/model"
)

// MediaEventKind enumerates the media element lifecycle events the client
// reports back to the engine.
type MediaEventKind string

const (
	MediaTimeUpdate MediaEventKind = "timeupdate"
	MediaEnded      MediaEventKind = "ended"
	MediaError      MediaEventKind = "error"
)

// MediaEvent is a single lifecycle event from the client's audio element.
type MediaEvent struct {
	Kind MediaEventKind `json:"kind"`
	// Position is the playback position in seconds, meaningful for timeupdate.
	Position float64 `json:"position"`
}

// AudioPhaseController owns the single audio track slot of a listening
// attempt: which source is loaded and how far playback has progressed.
// During PLAYING the elapsed value here is the authoritative clock, not the
// tick source.
type AudioPhaseController struct {
	endingClipBase string
	src            string
	elapsed        int
}

// NewAudioPhaseController creates a controller. endingClipBase is the URL
// prefix under which the fixed per-part transition clips are hosted.
func NewAudioPhaseController(endingClipBase string) *AudioPhaseController {
	return &AudioPhaseController{endingClipBase: endingClipBase}
}

// LoadPart points the track slot at a part's audio asset and rewinds.
func (c *AudioPhaseController) LoadPart(part *model.Part) {
	c.src = part.AudioURL
	c.elapsed = 0
}

// LoadEnding points the track slot at the transition clip for the given
// part number (1-based) and rewinds.
func (c *AudioPhaseController) LoadEnding(partNum int) {
	c.src = fmt.Sprintf("%s/ending-%d.mp3", c.endingClipBase, partNum)
	c.elapsed = 0
}

// Unload clears the track slot, used when returning to a preparation
// countdown where no audio plays.
func (c *AudioPhaseController) Unload() {
	c.src = ""
	c.elapsed = 0
}

// OnTimeUpdate records the client-reported playback position.
func (c *AudioPhaseController) OnTimeUpdate(position float64) {
	if position < 0 {
		return
	}
	c.elapsed = int(position)
}

// SetElapsed restores the elapsed counter from a snapshot.
func (c *AudioPhaseController) SetElapsed(seconds int) {
	c.elapsed = seconds
}

// Source returns the currently loaded source URL, "" when unloaded.
func (c *AudioPhaseController) Source() string { return c.src }

// Elapsed returns the playback position in whole seconds.
func (c *AudioPhaseController) Elapsed() int { return c.elapsed }
