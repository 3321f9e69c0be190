package pe

import "testing"

func TestVerifyChecksumZeroStored(t *testing.T) {
	data := buildImage(0x800, nil, nil)

	img := mustParse(t, data)
	info := img.VerifyChecksum()
	if !info.Valid {
		t.Error("Valid = false, want true for an unchecksummed file")
	}
	if info.Stored != 0 {
		t.Errorf("Stored = 0x%X, want 0", info.Stored)
	}
}

func TestVerifyChecksumMatch(t *testing.T) {
	data := buildImage(0x800, []Section{
		testSection(".text", 0x1000, 0x1000, 0x400, 0x400, scnCntCode|scnMemRead),
	}, nil)
	// Give the sum something besides headers to chew on.
	copy(data[0x400:], "some section content for the checksum to cover")

	// Stamp the correct value into the checksum field. The field itself
	// is skipped by the computation, so stamping does not shift the sum.
	img := mustParse(t, data)
	computed := img.computeChecksum()
	putU32(data, testOptOffset+64, computed)

	img = mustParse(t, data)
	info := img.VerifyChecksum()
	if !info.Valid {
		t.Errorf("Valid = false, want true (stored 0x%X, computed 0x%X)",
			info.Stored, info.Computed)
	}
	if info.Stored != computed {
		t.Errorf("Stored = 0x%X, want 0x%X", info.Stored, computed)
	}
}

func TestVerifyChecksumMismatch(t *testing.T) {
	data := buildImage(0x800, nil, nil)

	img := mustParse(t, data)
	computed := img.computeChecksum()
	putU32(data, testOptOffset+64, computed+1)

	img = mustParse(t, data)
	info := img.VerifyChecksum()
	if info.Valid {
		t.Error("Valid = true, want false for a corrupted checksum")
	}
	if info.Computed != computed {
		t.Errorf("Computed = 0x%X, want 0x%X", info.Computed, computed)
	}
}

// buildImageAt assembles a minimal PE32 buffer whose NT headers start at
// the given offset, which deliberately need not be 4-byte aligned.
func buildImageAt(ntOffset, size int) []byte {
	buf := make([]byte, size)

	putU16(buf, 0, dosSignature)
	putU32(buf, lfanewOffset, uint32(ntOffset))
	putU32(buf, ntOffset, ntSignature)
	putU16(buf, ntOffset+4, 0x14C)
	putU16(buf, ntOffset+4+16, testOptHeaderSize)
	putU16(buf, ntOffset+4+fileHeaderSize, magicPE32)

	return buf
}

func TestVerifyChecksumUnalignedNTHeader(t *testing.T) {
	// With e_lfanew off 4-byte alignment the checksum field straddles two
	// sum chunks. Stamping the computed value must still verify.
	data := buildImageAt(0x82, 0x800)
	copy(data[0x400:], "content behind an unaligned header")

	img := mustParse(t, data)
	computed := img.computeChecksum()
	putU32(data, 0x82+4+fileHeaderSize+64, computed)

	img = mustParse(t, data)
	info := img.VerifyChecksum()
	if !info.Valid {
		t.Errorf("Valid = false, want true (stored 0x%X, computed 0x%X)",
			info.Stored, info.Computed)
	}
}

func TestChecksumFileSizeDependence(t *testing.T) {
	small := mustParse(t, buildImage(0x800, nil, nil))
	large := mustParse(t, buildImage(0x1000, nil, nil))

	if small.computeChecksum() == large.computeChecksum() {
		t.Error("checksums of different-sized files collided; size term missing")
	}
}
