package eventstore

import "time"

// Event is one journal entry.
type Event interface {
	ID() int64
	BuildID() string
	Type() string
	Timestamp() time.Time
	// Payload is the JSON encoded event body.
	Payload() []byte
	Metadata() map[string]string
}

// Record is the stored form of an event, as read back from a Store.
type Record struct {
	RecordID        int64
	RecordBuildID   string
	RecordType      string
	RecordTimestamp time.Time
	RecordPayload   []byte
	RecordMetadata  map[string]string
}

func (r *Record) ID() int64                   { return r.RecordID }
func (r *Record) BuildID() string             { return r.RecordBuildID }
func (r *Record) Type() string                { return r.RecordType }
func (r *Record) Timestamp() time.Time        { return r.RecordTimestamp }
func (r *Record) Payload() []byte             { return r.RecordPayload }
func (r *Record) Metadata() map[string]string { return r.RecordMetadata }
