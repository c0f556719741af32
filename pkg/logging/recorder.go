package logging

// RecordedEntry is a log line captured by a Recorder
type RecordedEntry struct {
	Level   Level
	Message string
	Fields  map[string]any
}

// Recorder is a Logger that keeps entries in memory so tests can assert on
// them. Children created by With append to their parent's entries.
type Recorder struct {
	core
	entries *[]RecordedEntry
}

// NewRecorder creates a Recorder capturing every level.
func NewRecorder() *Recorder {
	return &Recorder{core: newCore(DebugLevel), entries: &[]RecordedEntry{}}
}

func (r *Recorder) record(level Level, msg string, fields []Field) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if level < r.level {
		return
	}
	*r.entries = append(*r.entries, RecordedEntry{Level: level, Message: msg, Fields: r.fieldMap(fields)})
}

func (r *Recorder) Debug(msg string, fields ...Field) { r.record(DebugLevel, msg, fields) }
func (r *Recorder) Info(msg string, fields ...Field)  { r.record(InfoLevel, msg, fields) }
func (r *Recorder) Warn(msg string, fields ...Field)  { r.record(WarnLevel, msg, fields) }
func (r *Recorder) Error(msg string, fields ...Field) { r.record(ErrorLevel, msg, fields) }

func (r *Recorder) With(fields ...Field) Logger {
	return &Recorder{core: r.child(fields), entries: r.entries}
}

// Entries returns a snapshot of captured entries
func (r *Recorder) Entries() []RecordedEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RecordedEntry, len(*r.entries))
	copy(out, *r.entries)
	return out
}

// Find returns the first entry with the given message
func (r *Recorder) Find(msg string) (RecordedEntry, bool) {
	for _, e := range r.Entries() {
		if e.Message == msg {
			return e, true
		}
	}
	return RecordedEntry{}, false
}

// FindAll returns every entry at level.
func (r *Recorder) FindAll(level Level) []RecordedEntry {
	var out []RecordedEntry
	for _, e := range r.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}
