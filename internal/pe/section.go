package pe

import "strings"

// Section characteristic flags (subset this tool reports on).
const (
	scnCntCode            = 0x00000020
	scnCntInitializedData = 0x00000040
	scnCntUninitData      = 0x00000080
	scnLnkInfo            = 0x00000200
	scnMemDiscardable     = 0x02000000
	scnMemShared          = 0x10000000
	scnMemExecute         = 0x20000000
	scnMemRead            = 0x40000000
	scnMemWrite           = 0x80000000
)

// Section mirrors IMAGE_SECTION_HEADER. Name keeps the raw 8 bytes; it is
// not NUL-terminated in the file.
type Section struct {
	Name             [8]byte
	VirtualSize      uint32
	VirtualAddress   uint32
	SizeOfRawData    uint32
	PointerToRawData uint32
	Characteristics  uint32
}

// NameString returns the section name with trailing NUL padding removed.
func (s *Section) NameString() string {
	return strings.TrimRight(string(s.Name[:]), "\x00")
}

// Permissions renders the R/W/X memory flags, e.g. "R-X".
func (s *Section) Permissions() string {
	perms := [3]byte{'-', '-', '-'}
	if s.Characteristics&scnMemRead != 0 {
		perms[0] = 'R'
	}
	if s.Characteristics&scnMemWrite != 0 {
		perms[1] = 'W'
	}
	if s.Characteristics&scnMemExecute != 0 {
		perms[2] = 'X'
	}
	return string(perms[:])
}

// FlagNames renders the characteristic flags this tool knows about,
// joined with " | ", or "0" when none are set.
func (s *Section) FlagNames() string {
	known := []struct {
		bit  uint32
		name string
	}{
		{scnCntCode, "CODE"},
		{scnCntInitializedData, "INITIALIZED_DATA"},
		{scnCntUninitData, "UNINITIALIZED_DATA"},
		{scnLnkInfo, "LINKER_INFO"},
		{scnMemDiscardable, "MEM_DISCARDABLE"},
		{scnMemShared, "MEM_SHARED"},
		{scnMemExecute, "MEM_EXECUTE"},
		{scnMemRead, "MEM_READ"},
		{scnMemWrite, "MEM_WRITE"},
	}

	var parts []string
	for _, k := range known {
		if s.Characteristics&k.bit != 0 {
			parts = append(parts, k.name)
		}
	}
	if len(parts) == 0 {
		return "0"
	}
	return strings.Join(parts, " | ")
}

// parseSections reads the 40-byte section records that follow the
// optional header. A section table cut off by the buffer end yields the
// sections that fit.
func (img *Image) parseSections(offset uint32, count uint16) {
	for i := uint16(0); i < count; i++ {
		raw, err := img.readBytes(offset+uint32(i)*sectionHeaderSize, sectionHeaderSize)
		if err != nil {
			break
		}

		var s Section
		copy(s.Name[:], raw[0:8])
		s.VirtualSize = le32(raw[8:12])
		s.VirtualAddress = le32(raw[12:16])
		s.SizeOfRawData = le32(raw[16:20])
		s.PointerToRawData = le32(raw[20:24])
		s.Characteristics = le32(raw[36:40])
		img.Sections = append(img.Sections, s)
	}
}

// Resolve maps an RVA to a file offset via the section table. Sections
// are scanned in stored order; the first match wins. A resolved offset
// is guaranteed to lie inside the buffer, so it is always smaller than
// Size().
func (img *Image) Resolve(rva uint32) (uint32, error) {
	for i := range img.Sections {
		s := &img.Sections[i]
		if rva >= s.VirtualAddress && rva < s.VirtualAddress+s.VirtualSize {
			offset := rva - s.VirtualAddress + s.PointerToRawData
			if err := img.checkRead(offset, 1); err != nil {
				return 0, err
			}
			return offset, nil
		}
	}
	return 0, &NotMappedError{RVA: rva}
}

// SectionEntropy calculates the Shannon entropy of a section's raw data,
// clipped to the buffer. Returns 0 for sections without raw data.
func (img *Image) SectionEntropy(s *Section) float64 {
	if s.SizeOfRawData == 0 {
		return 0
	}
	start := uint64(s.PointerToRawData)
	end := start + uint64(s.SizeOfRawData)
	if start >= uint64(len(img.data)) {
		return 0
	}
	if end > uint64(len(img.data)) {
		end = uint64(len(img.data))
	}
	return CalculateEntropy(img.data[start:end])
}
