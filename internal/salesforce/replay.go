package salesforce

import (
	"encoding/base64"
	"fmt"

	"github.com/bettyarega/Flash-CDC/pkg/models"
	pb "github.com/bettyarega/Flash-CDC/pkg/proto"
)

// ReplayStart describes where the next subscription begins.
type ReplayStart struct {
	Preset   pb.ReplayPreset
	ReplayID []byte
	// DropBeforeMS discards events older than this commit timestamp locally.
	// Zero means no cutoff. Used for the "since N minutes" mode, which the
	// broker has no native time filter for.
	DropBeforeMS int64
}

// Describe renders the start position for status output and logs.
func (r ReplayStart) Describe() string {
	switch r.Preset {
	case pb.ReplayPreset_CUSTOM:
		return fmt.Sprintf("custom(%d bytes)", len(r.ReplayID))
	case pb.ReplayPreset_EARLIEST:
		if r.DropBeforeMS > 0 {
			return fmt.Sprintf("earliest(drop<%d)", r.DropBeforeMS)
		}
		return "earliest"
	default:
		return "latest"
	}
}

// SelectReplayStart resolves the operator hint and the stored cursor into a
// concrete start position. A nil hint means "resume from the stored cursor".
// The second return value asks the caller to clear a stored cursor that
// failed to decode.
func SelectReplayStart(hint *models.ReplayHint, storedB64 string, nowMS int64) (ReplayStart, bool) {
	mode := models.ReplayStored
	if hint != nil && hint.Mode != "" {
		mode = hint.Mode
	}

	switch mode {
	case models.ReplayLatest:
		return ReplayStart{Preset: pb.ReplayPreset_LATEST}, false

	case models.ReplayEarliest:
		return ReplayStart{Preset: pb.ReplayPreset_EARLIEST}, false

	case models.ReplayCustom:
		id, err := base64.StdEncoding.DecodeString(hint.ReplayIDB64)
		if err != nil || len(id) == 0 {
			return ReplayStart{Preset: pb.ReplayPreset_LATEST}, false
		}
		return ReplayStart{Preset: pb.ReplayPreset_CUSTOM, ReplayID: id}, false

	case models.ReplaySince:
		if hint.SinceMinutes <= 0 {
			return ReplayStart{Preset: pb.ReplayPreset_EARLIEST}, false
		}
		return ReplayStart{
			Preset:       pb.ReplayPreset_EARLIEST,
			DropBeforeMS: nowMS - int64(hint.SinceMinutes)*60_000,
		}, false

	default: // stored
		if storedB64 == "" {
			return ReplayStart{Preset: pb.ReplayPreset_EARLIEST}, false
		}
		id, err := base64.StdEncoding.DecodeString(storedB64)
		if err != nil || len(id) == 0 {
			return ReplayStart{Preset: pb.ReplayPreset_EARLIEST}, true
		}
		return ReplayStart{Preset: pb.ReplayPreset_CUSTOM, ReplayID: id}, false
	}
}
