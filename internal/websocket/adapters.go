package websocket

import (
	"context"
	"fmt"
	"path"

	"sales-leaderboard/internal/alerting"
	"sales-leaderboard/internal/audio"
	"sales-leaderboard/internal/leaderboard"
)

// AlertPresenter publishes alert view models to the screens.
type AlertPresenter struct {
	hub *Hub
}

// NewAlertPresenter wraps hub.
func NewAlertPresenter(hub *Hub) *AlertPresenter {
	return &AlertPresenter{hub: hub}
}

// Present shows view on every screen.
func (p *AlertPresenter) Present(view alerting.ViewModel) {
	p.send(view, "present")
}

// Clear hides the alert on every screen.
func (p *AlertPresenter) Clear(view alerting.ViewModel) {
	p.send(view, "clear")
}

func (p *AlertPresenter) send(view alerting.ViewModel, action string) {
	if err := p.hub.Broadcast(MessageTypeAlert, view); err != nil {
		p.hub.logger.Warn().Err(err).Str("action", action).
			Str("sale_process_id", view.SaleProcessID).
			Uint64("presentation_id", view.PresentationID).
			Msg("alert message not delivered to screens")
	}
}

// CuePlayer turns audio commands into audioCue messages.
type CuePlayer struct {
	hub    *Hub
	prefix string
}

// NewCuePlayer resolves clip names under the public URL prefix.
func NewCuePlayer(hub *Hub, publicPrefix string) *CuePlayer {
	if publicPrefix == "" {
		publicPrefix = "/"
	}
	return &CuePlayer{hub: hub, prefix: publicPrefix}
}

// PlayVoice starts the voice-over at full volume.
func (p *CuePlayer) PlayVoice(ctx context.Context, clip string) error {
	return p.play(ctx, AudioCue{Action: "play", Cue: "voice", URL: p.url(clip), Volume: 1.0})
}

// PlayBell starts the bell.
func (p *CuePlayer) PlayBell(ctx context.Context, clip string, loop bool) error {
	return p.play(ctx, AudioCue{Action: "play", Cue: "bell", URL: p.url(clip), Volume: 1.0, Loop: loop})
}

// StopAll silences every screen.
func (p *CuePlayer) StopAll() {
	if err := p.hub.Broadcast(MessageTypeAudioCue, AudioCue{Action: "stop"}); err != nil {
		p.hub.logger.Warn().Err(err).Msg("audio stop not delivered to screens")
	}
}

func (p *CuePlayer) play(ctx context.Context, cue AudioCue) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.hub.ClientCount() == 0 {
		return fmt.Errorf("%w: no screens connected", audio.ErrPlayback)
	}
	if err := p.hub.Broadcast(MessageTypeAudioCue, cue); err != nil {
		return fmt.Errorf("%w: %v", audio.ErrPlayback, err)
	}
	return nil
}

func (p *CuePlayer) url(clip string) string {
	return path.Join(p.prefix, clip)
}

var (
	_ alerting.Presenter = (*AlertPresenter)(nil)
	_ audio.Player       = (*CuePlayer)(nil)
)

// LeaderboardPublisher pushes ranking snapshots to the screens.
type LeaderboardPublisher struct {
	hub *Hub
}

// NewLeaderboardPublisher wraps hub.
func NewLeaderboardPublisher(hub *Hub) *LeaderboardPublisher {
	return &LeaderboardPublisher{hub: hub}
}

// Publish broadcasts snapshot; it is also replayed to screens that connect later.
func (p *LeaderboardPublisher) Publish(snapshot leaderboard.Snapshot) error {
	return p.hub.Broadcast(MessageTypeLeaderboard, snapshot)
}
