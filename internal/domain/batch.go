package domain

import "github.com/google/uuid"

// NewBatch wraps the surviving events of one upload with a fresh ID and the
// current time.
func NewBatch(source string, format Format, events []DisasterEvent, rejections []Rejection) Batch {
	if events == nil {
		events = []DisasterEvent{}
	}
	return Batch{
		ID:         uuid.NewString(),
		Source:     source,
		Format:     format,
		IngestedAt: clock.Now().UTC(),
		Events:     events,
		Rejected:   len(rejections),
		Rejections: rejections,
	}
}
