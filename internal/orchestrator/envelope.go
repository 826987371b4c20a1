package orchestrator

import (
	"encoding/json"
	"time"

	"careertools/internal/types"
)

// Envelope is the frozen request built from a draft at submit time
type Envelope struct {
	Profile   types.ProfileDraft
	Body      []byte
	CreatedAt time.Time
}

// NewEnvelope deep-copies the draft and serializes it
func NewEnvelope(profile types.ProfileDraft, now time.Time) (*Envelope, error) {
	snapshot := profile.Clone()
	body, err := json.Marshal(snapshot)
	if err != nil {
		return nil, err
	}
	return &Envelope{Profile: snapshot, Body: body, CreatedAt: now}, nil
}
