package pe

import (
	"fmt"
	"strings"
)

// Info contains the analysis results for one image, ready for
// presentation. Warnings collect the recoverable problems met along the
// way (unsupported variants, truncated or unmapped directories).
type Info struct {
	FilePath string
	FileSize int64

	Image     *Image
	Sections  []SectionInfo
	Exports   *ExportTable
	Imports   []ModuleImport
	Checksum  ChecksumInfo
	Signature SignatureInfo
	Warnings  []string
}

// SectionInfo is one section plus derived display values.
type SectionInfo struct {
	Name            string
	VirtualAddress  uint32
	VirtualSize     uint32
	RawSize         uint32
	Characteristics uint32
	Permissions     string
	Flags           string
	Entropy         float64
}

// Analyze parses the buffer and runs every read-only inspection. Only a
// bad signature or missing headers fail the whole analysis; everything
// else degrades into Warnings and partial results.
func Analyze(filePath string, data []byte) (*Info, error) {
	img, err := Parse(data)
	if err != nil {
		return nil, err
	}

	info := &Info{
		FilePath: filePath,
		FileSize: int64(len(data)),
		Image:    img,
	}

	for i := range img.Sections {
		s := &img.Sections[i]
		info.Sections = append(info.Sections, SectionInfo{
			Name:            s.NameString(),
			VirtualAddress:  s.VirtualAddress,
			VirtualSize:     s.VirtualSize,
			RawSize:         s.SizeOfRawData,
			Characteristics: s.Characteristics,
			Permissions:     s.Permissions(),
			Flags:           s.FlagNames(),
			Entropy:         img.SectionEntropy(s),
		})
	}

	exports, err := img.Exports()
	if err != nil {
		info.Warnings = append(info.Warnings, fmt.Sprintf("导出表: %v", err))
	}
	info.Exports = exports
	if exports != nil && exports.Truncated {
		info.Warnings = append(info.Warnings, (&TruncatedDirectoryError{Directory: "导出目录"}).Error())
	}

	imports, err := img.Imports()
	if err != nil {
		info.Warnings = append(info.Warnings, fmt.Sprintf("导入表: %v", err))
	}
	info.Imports = imports

	info.Checksum = img.VerifyChecksum()
	info.Signature = img.Signature()

	return info, nil
}

// Architecture renders the machine field, e.g. "x86 (32位)".
func (img *Image) Architecture() string {
	switch img.FileHeader.Machine {
	case 0x14C:
		return "x86 (32位)"
	case 0x8664:
		return "x64 (64位)"
	case 0x1C0:
		return "ARM"
	case 0xAA64:
		return "ARM64"
	case 0x162, 0x166:
		return "MIPS"
	case 0x183:
		return "DEC Alpha AXP"
	default:
		return fmt.Sprintf("未知 (0x%X)", img.FileHeader.Machine)
	}
}

// SubsystemName renders the optional header subsystem field.
func (img *Image) SubsystemName() string {
	switch img.OptionalHeader.Subsystem {
	case 1:
		return "Native"
	case 2:
		return "Windows GUI"
	case 3:
		return "Windows 控制台"
	case 5:
		return "OS/2 控制台"
	case 7:
		return "POSIX 控制台"
	default:
		return fmt.Sprintf("未知 (0x%X)", img.OptionalHeader.Subsystem)
	}
}

// CharacteristicNames renders the file header characteristic flags this
// tool knows about.
func (img *Image) CharacteristicNames() string {
	c := img.FileHeader.Characteristics
	var parts []string
	if c&0x0001 != 0 {
		parts = append(parts, "NO_RELOC")
	}
	if c&0x0002 != 0 {
		parts = append(parts, "EXE")
	}
	if c&0x2000 != 0 {
		parts = append(parts, "DLL")
	}
	if len(parts) == 0 {
		return "0"
	}
	return strings.Join(parts, " ")
}
