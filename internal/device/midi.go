package device

// MIDIBackend is the host MIDI output's contract: notes are played via
// the host's OS MIDI output if available, identified by a port index
// set at startup. Play returns immediately; the MidiOutSync ecall's
// blocking wait lives in internal/ecall, where it can honor
// cancellation, so the backend never needs a synchronous variant.
type MIDIBackend interface {
	Play(pitch, durationMs, instrument, velocity int)
}

// NullMIDI is the headless stub used when no MIDI port was requested,
// or none is available on the host.
type NullMIDI struct{ Port int }

func (NullMIDI) Play(pitch, durationMs, instrument, velocity int) {}
