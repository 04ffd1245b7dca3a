// Package invoke runs one split invocation: fetch the input object, split it,
// and upload every produced workbook back to the same bucket.
package invoke

import (
	"errors"

	"github.com/tidwall/gjson"
)

// ErrMissingInputReference indicates an event without a usable bucket or key.
var ErrMissingInputReference = errors.New("missing bucket or key in the event")

// Event identifies the input object of an invocation.
type Event struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// ParseEvent extracts the bucket and key fields from a JSON event payload.
// Both must be non-empty strings.
func ParseEvent(payload []byte) (Event, error) {
	if !gjson.ValidBytes(payload) {
		return Event{}, ErrMissingInputReference
	}

	fields := gjson.GetManyBytes(payload, "bucket", "key")
	bucket, key := fields[0], fields[1]
	if bucket.Type != gjson.String || key.Type != gjson.String {
		return Event{}, ErrMissingInputReference
	}

	ev := Event{Bucket: bucket.String(), Key: key.String()}
	if err := ev.Validate(); err != nil {
		return Event{}, err
	}
	return ev, nil
}

// Validate reports ErrMissingInputReference when either field is empty.
func (e Event) Validate() error {
	if e.Bucket == "" || e.Key == "" {
		return ErrMissingInputReference
	}
	return nil
}
