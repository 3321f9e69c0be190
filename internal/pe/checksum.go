package pe

import "encoding/binary"

// ChecksumInfo contains PE checksum verification results.
type ChecksumInfo struct {
	Stored   uint32
	Computed uint32
	Valid    bool
}

// VerifyChecksum computes the optional-header checksum over the buffer
// and compares it to the stored value. A stored checksum of zero means
// the file was never checksummed (common outside system binaries) and
// counts as valid.
func (img *Image) VerifyChecksum() ChecksumInfo {
	stored := img.OptionalHeader.CheckSum
	if stored == 0 {
		return ChecksumInfo{Valid: true}
	}

	computed := img.computeChecksum()
	return ChecksumInfo{
		Stored:   stored,
		Computed: computed,
		Valid:    computed == stored,
	}
}

// computeChecksum implements the standard PE checksum: 16-bit one's
// complement sum over the file in 4-byte chunks, skipping the checksum
// field itself, plus the file size.
func (img *Image) computeChecksum() uint32 {
	// Checksum field offset inside the optional header is 64 for both
	// PE32 and PE32+.
	checksumOffset := uint64(img.ntHeaderOffset) + 4 + fileHeaderSize + 64

	var checksum uint64
	var chunk [4]byte
	size := uint64(len(img.data))

	for offset := uint64(0); offset < size; offset += 4 {
		chunk = [4]byte{}
		copy(chunk[:], img.data[offset:min(offset+4, size)])

		// The field must not feed its own sum. e_lfanew need not be
		// 4-byte aligned, so the field can straddle two chunks; mask the
		// field bytes instead of skipping whole chunks.
		for i := uint64(0); i < 4; i++ {
			if b := offset + i; b >= checksumOffset && b < checksumOffset+4 {
				chunk[i] = 0
			}
		}

		checksum += uint64(binary.LittleEndian.Uint32(chunk[:]))
		if checksum > 0xFFFFFFFF {
			checksum = (checksum & 0xFFFFFFFF) + (checksum >> 32)
		}
	}

	checksum = (checksum & 0xFFFF) + (checksum >> 16)
	checksum += checksum >> 16
	checksum &= 0xFFFF

	return uint32(checksum + size)
}
