package pe

// directoryWalker iterates fixed-size records stored in a directory,
// starting at an already resolved file offset. Iteration stops at a
// caller-supplied sentinel record, at a declared record count, at a
// defensive maximum, or at the buffer end, whichever comes first.
// Stopping at the buffer end marks the walk as truncated; the records
// read so far remain valid.
type directoryWalker struct {
	img        *Image
	offset     uint32
	recordSize uint32

	remaining int // declared record count; -1 when sentinel-terminated
	max       int
	sentinel  func(record []byte) bool

	truncated bool
}

// newDirectoryWalker prepares a walk of records of recordSize bytes at
// offset. count < 0 means the directory has no declared count and relies
// on the sentinel; max bounds the walk regardless (nothing else bounds a
// sentinel-terminated directory in malformed input).
func (img *Image) newDirectoryWalker(offset, recordSize uint32, count, max int, sentinel func([]byte) bool) *directoryWalker {
	return &directoryWalker{
		img:        img,
		offset:     offset,
		recordSize: recordSize,
		remaining:  count,
		max:        max,
		sentinel:   sentinel,
	}
}

// next returns the next record, or false when the walk is over. The
// returned slice aliases the image buffer and is valid for the life of
// the image.
func (w *directoryWalker) next() ([]byte, bool) {
	if w.remaining == 0 || w.max == 0 {
		return nil, false
	}

	record, err := w.img.readBytes(w.offset, w.recordSize)
	if err != nil {
		w.truncated = true
		return nil, false
	}
	if w.sentinel != nil && w.sentinel(record) {
		return nil, false
	}

	w.offset += w.recordSize
	w.max--
	if w.remaining > 0 {
		w.remaining--
	}
	return record, true
}

// allZero reports whether every byte of the record is zero. An all-zero
// record is the conventional directory terminator.
func allZero(record []byte) bool {
	for _, b := range record {
		if b != 0 {
			return false
		}
	}
	return true
}
