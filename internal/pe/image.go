// Package pe provides read-only parsing of Portable Executable images
// from raw byte buffers, without the platform loader or any debug API.
// Every read goes through bounds-checked accessors; malformed input
// degrades to partial results instead of panics.
package pe

import (
	"encoding/binary"
)

// Signatures and fixed record sizes from the PE format.
const (
	dosSignature uint16 = 0x5A4D     // "MZ"
	ntSignature  uint32 = 0x00004550 // "PE\0\0"

	lfanewOffset       = 0x3C
	fileHeaderSize     = 20
	sectionHeaderSize  = 40
	maxDataDirectories = 16

	magicPE32     = 0x10B
	magicPE32Plus = 0x20B

	// Null-terminated strings inside directories are capped so a missing
	// terminator cannot walk the whole buffer.
	maxCStringLength = 4096
)

// Data directory indices used by this package.
const (
	dirEntryExports  = 0
	dirEntryImports  = 1
	dirEntrySecurity = 4
)

// DataDirectory is one of the 16 RVA/size slots of the optional header.
type DataDirectory struct {
	VirtualAddress uint32
	Size           uint32
}

// FileHeader mirrors IMAGE_FILE_HEADER.
type FileHeader struct {
	Machine              uint16
	NumberOfSections     uint16
	TimeDateStamp        uint32
	PointerToSymbolTable uint32
	NumberOfSymbols      uint32
	SizeOfOptionalHeader uint16
	Characteristics      uint16
}

// OptionalHeader carries the IMAGE_OPTIONAL_HEADER fields this tool
// reports on. Field offsets differ between PE32 and PE32+; both layouts
// are parsed, but only PE32 directories are walked.
type OptionalHeader struct {
	Magic                   uint16
	MajorLinkerVersion      uint8
	MinorLinkerVersion      uint8
	SizeOfCode              uint32
	SizeOfInitializedData   uint32
	SizeOfUninitializedData uint32
	AddressOfEntryPoint     uint32
	ImageBase               uint64
	SizeOfImage             uint32
	SizeOfHeaders           uint32
	CheckSum                uint32
	Subsystem               uint16
	DLLCharacteristics      uint16
	NumberOfRvaAndSizes     uint32
	DataDirectory           []DataDirectory
}

// Image is an immutable PE image: the raw buffer plus the parsed header
// summary. It is never mutated after Parse, so concurrent reads are safe.
type Image struct {
	data           []byte
	ntHeaderOffset uint32

	FileHeader     FileHeader
	OptionalHeader OptionalHeader
	Sections       []Section
}

// Parse validates the DOS and NT signatures and reads the header summary
// and section table. The buffer is retained, not copied.
func Parse(data []byte) (*Image, error) {
	img := &Image{data: data}

	sig, err := img.readU16(0)
	if err != nil {
		return nil, ErrHeaderTooShort
	}
	if sig != dosSignature {
		return nil, ErrBadDOSSignature
	}

	lfanew, err := img.readU32(lfanewOffset)
	if err != nil {
		return nil, ErrHeaderTooShort
	}

	ntSig, err := img.readU32(lfanew)
	if err != nil {
		return nil, ErrHeaderTooShort
	}
	if ntSig != ntSignature {
		return nil, ErrBadNTSignature
	}
	img.ntHeaderOffset = lfanew

	if err := img.parseFileHeader(lfanew + 4); err != nil {
		return nil, err
	}

	optOffset := lfanew + 4 + fileHeaderSize
	img.parseOptionalHeader(optOffset, uint32(img.FileHeader.SizeOfOptionalHeader))
	img.parseSections(optOffset+uint32(img.FileHeader.SizeOfOptionalHeader), img.FileHeader.NumberOfSections)

	return img, nil
}

// Size returns the length of the underlying buffer.
func (img *Image) Size() int {
	return len(img.data)
}

// NTHeaderOffset returns the file offset of the "PE\0\0" signature.
func (img *Image) NTHeaderOffset() uint32 {
	return img.ntHeaderOffset
}

// DOSRegion returns the bytes from the file start up to the NT header:
// the legacy DOS header plus the stub program.
func (img *Image) DOSRegion() []byte {
	end := uint64(img.ntHeaderOffset)
	if end > uint64(len(img.data)) {
		end = uint64(len(img.data))
	}
	return img.data[:end]
}

// Is64Bit reports whether the optional header declares a PE32+ image.
func (img *Image) Is64Bit() bool {
	return img.OptionalHeader.Magic == magicPE32Plus
}

// DataDirectory returns the directory slot at index i, or a zero slot
// when the header declares fewer entries.
func (img *Image) DataDirectory(i int) DataDirectory {
	if i < 0 || i >= len(img.OptionalHeader.DataDirectory) {
		return DataDirectory{}
	}
	return img.OptionalHeader.DataDirectory[i]
}

func (img *Image) parseFileHeader(offset uint32) error {
	raw, err := img.readBytes(offset, fileHeaderSize)
	if err != nil {
		return ErrHeaderTooShort
	}

	img.FileHeader = FileHeader{
		Machine:              binary.LittleEndian.Uint16(raw[0:2]),
		NumberOfSections:     binary.LittleEndian.Uint16(raw[2:4]),
		TimeDateStamp:        binary.LittleEndian.Uint32(raw[4:8]),
		PointerToSymbolTable: binary.LittleEndian.Uint32(raw[8:12]),
		NumberOfSymbols:      binary.LittleEndian.Uint32(raw[12:16]),
		SizeOfOptionalHeader: binary.LittleEndian.Uint16(raw[16:18]),
		Characteristics:      binary.LittleEndian.Uint16(raw[18:20]),
	}
	return nil
}

// parseOptionalHeader reads whatever fits inside the declared optional
// header size. A zero or tiny size leaves NumberOfRvaAndSizes at zero,
// which downstream walkers treat as unsupported.
func (img *Image) parseOptionalHeader(offset, declaredSize uint32) {
	oh := &img.OptionalHeader

	// Field readers return zero when the field lies outside the declared
	// header or the buffer.
	u16 := func(rel uint32) uint16 {
		if rel+2 > declaredSize {
			return 0
		}
		v, _ := img.readU16(offset + rel)
		return v
	}
	u32 := func(rel uint32) uint32 {
		if rel+4 > declaredSize {
			return 0
		}
		v, _ := img.readU32(offset + rel)
		return v
	}

	oh.Magic = u16(0)
	oh.MajorLinkerVersion = uint8(u16(2))
	oh.MinorLinkerVersion = uint8(u16(2) >> 8)
	oh.SizeOfCode = u32(4)
	oh.SizeOfInitializedData = u32(8)
	oh.SizeOfUninitializedData = u32(12)
	oh.AddressOfEntryPoint = u32(16)
	oh.SizeOfImage = u32(56)
	oh.SizeOfHeaders = u32(60)
	oh.CheckSum = u32(64)
	oh.Subsystem = u16(68)
	oh.DLLCharacteristics = u16(70)

	var dirOffset uint32
	if oh.Magic == magicPE32Plus {
		oh.ImageBase = uint64(u32(24)) | uint64(u32(28))<<32
		oh.NumberOfRvaAndSizes = u32(108)
		dirOffset = 112
	} else {
		oh.ImageBase = uint64(u32(28))
		oh.NumberOfRvaAndSizes = u32(92)
		dirOffset = 96
	}

	count := oh.NumberOfRvaAndSizes
	if count > maxDataDirectories {
		count = maxDataDirectories
	}
	for i := uint32(0); i < count; i++ {
		rel := dirOffset + i*8
		if rel+8 > declaredSize {
			break
		}
		oh.DataDirectory = append(oh.DataDirectory, DataDirectory{
			VirtualAddress: u32(rel),
			Size:           u32(rel + 4),
		})
	}
}

// checkRead verifies that n bytes at offset lie inside the buffer. All
// reads route through this check; nothing else does raw arithmetic on
// the buffer.
func (img *Image) checkRead(offset, n uint32) error {
	if uint64(offset)+uint64(n) > uint64(len(img.data)) {
		return &MalformedRecordError{
			Offset: uint64(offset),
			Reason: "读取范围超出缓冲区末尾",
		}
	}
	return nil
}

func (img *Image) readBytes(offset, n uint32) ([]byte, error) {
	if err := img.checkRead(offset, n); err != nil {
		return nil, err
	}
	return img.data[offset : offset+n], nil
}

func (img *Image) readU16(offset uint32) (uint16, error) {
	raw, err := img.readBytes(offset, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(raw), nil
}

func (img *Image) readU32(offset uint32) (uint32, error) {
	raw, err := img.readBytes(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(raw), nil
}

// le32 decodes a little-endian uint32 from an already bounds-checked
// record slice.
func le32(raw []byte) uint32 {
	return binary.LittleEndian.Uint32(raw)
}

// readCString reads a NUL-terminated ASCII string at a file offset. The
// string is truncated at the buffer end or at maxCStringLength, whichever
// comes first; a missing terminator is not an error.
func (img *Image) readCString(offset uint32) (string, error) {
	if err := img.checkRead(offset, 1); err != nil {
		return "", err
	}

	end := uint64(offset) + maxCStringLength
	if end > uint64(len(img.data)) {
		end = uint64(len(img.data))
	}
	for i := uint64(offset); i < end; i++ {
		if img.data[i] == 0 {
			return string(img.data[offset:i]), nil
		}
	}
	return string(img.data[offset:end]), nil
}
