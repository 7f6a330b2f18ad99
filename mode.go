package pipeio

// OpenMode is the capability bitmask a [Device] is opened with.
type OpenMode uint8

const (
	// ReadOnly opens the read side: a reader worker is created, and
	// [Device.Read] and the read-side queries become available.
	ReadOnly OpenMode = 1 << iota
	// WriteOnly opens the write side: a writer worker is created, and
	// [Device.Write] and the write-side queries become available.
	WriteOnly

	// ReadWrite opens both sides of the handle.
	ReadWrite = ReadOnly | WriteOnly
)

// String returns a human-readable representation of the mode.
func (m OpenMode) String() string {
	switch m {
	case ReadOnly:
		return "ReadOnly"
	case WriteOnly:
		return "WriteOnly"
	case ReadWrite:
		return "ReadWrite"
	case 0:
		return "NotOpen"
	default:
		return "Invalid"
	}
}
