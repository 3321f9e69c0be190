package pe

import (
	"encoding/binary"
)

// Export directory layout.
const (
	exportDirectorySize = 40

	// Defensive caps against absurd declared counts in malformed images.
	maxExportFunctions = 65536
	maxExportNames     = 65536
)

// ExportKind distinguishes how an export record was produced.
type ExportKind int

const (
	// ExportNamed is a function RVA paired with a name table entry.
	ExportNamed ExportKind = iota
	// ExportForwarder delegates to another module; Forwarder holds the
	// "Module.Symbol" string and there is no resolvable address.
	ExportForwarder
)

// ExportRecord is one exported symbol. Ordinal is the unbiased function
// table index; add the table's OrdinalBase for the loader-visible value.
type ExportRecord struct {
	Ordinal   uint32
	Name      string
	RVA       uint32
	Forwarder string
	Kind      ExportKind
}

// ExportTable is the result of one export directory walk. Records keep
// discovery order (function index, then name table order); sorting is a
// presentation concern.
type ExportTable struct {
	ModuleName        string
	OrdinalBase       uint32
	NumberOfFunctions uint32
	NumberOfNames     uint32
	Records           []ExportRecord
	Truncated         bool
}

type exportDirectory struct {
	nameRVA               uint32
	ordinalBase           uint32
	numberOfFunctions     uint32
	numberOfNames         uint32
	addressOfFunctions    uint32
	addressOfNames        uint32
	addressOfNameOrdinals uint32
}

// Exports walks the export directory and returns the symbols it exposes.
// Unused ordinal gaps (zero function RVAs) produce no record. A function
// RVA pointing back inside the export directory with no matching name is
// a forwarder. A missing directory yields an empty table; a PE32+ image
// or a zero NumberOfRvaAndSizes yields an UnsupportedError.
func (img *Image) Exports() (*ExportTable, error) {
	if img.OptionalHeader.NumberOfRvaAndSizes == 0 {
		return nil, &UnsupportedError{Reason: "RVA数量为零，文件已损坏或为64位PE"}
	}
	if img.Is64Bit() {
		return nil, &UnsupportedError{Reason: "不支持遍历64位PE的导出表"}
	}

	dir := img.DataDirectory(dirEntryExports)
	if dir.VirtualAddress == 0 || dir.Size == 0 {
		return &ExportTable{}, nil
	}

	dirOffset, err := img.Resolve(dir.VirtualAddress)
	if err != nil {
		return nil, err
	}
	raw, err := img.readBytes(dirOffset, exportDirectorySize)
	if err != nil {
		return nil, &TruncatedDirectoryError{Directory: "导出目录"}
	}

	ed := exportDirectory{
		nameRVA:               le32(raw[12:16]),
		ordinalBase:           le32(raw[16:20]),
		numberOfFunctions:     le32(raw[20:24]),
		numberOfNames:         le32(raw[24:28]),
		addressOfFunctions:    le32(raw[28:32]),
		addressOfNames:        le32(raw[32:36]),
		addressOfNameOrdinals: le32(raw[36:40]),
	}

	table := &ExportTable{
		OrdinalBase:       ed.ordinalBase,
		NumberOfFunctions: ed.numberOfFunctions,
		NumberOfNames:     ed.numberOfNames,
	}

	// The module's own name; a bad RVA just leaves it empty.
	if name, err := img.resolveCString(ed.nameRVA); err == nil {
		table.ModuleName = name
	}

	nameRVAs, ordinals := img.readExportNameTables(ed, table)

	funcOffset, err := img.Resolve(ed.addressOfFunctions)
	if err != nil {
		return table, err
	}

	walker := img.newDirectoryWalker(funcOffset, 4, int(ed.numberOfFunctions), maxExportFunctions, nil)
	for index := uint32(0); ; index++ {
		record, ok := walker.next()
		if !ok {
			break
		}

		funcRVA := le32(record)
		if funcRVA == 0 {
			// Gap in the exported ordinals.
			continue
		}

		matched := false
		for j := range ordinals {
			if uint32(ordinals[j]) != index {
				continue
			}
			name, err := img.resolveCString(nameRVAs[j])
			if err != nil {
				continue
			}
			matched = true
			table.Records = append(table.Records, ExportRecord{
				Ordinal: index,
				Name:    name,
				RVA:     funcRVA,
				Kind:    ExportNamed,
			})
		}

		// A forwarder's RVA points back inside the export directory and
		// names the real export as "Module.Symbol".
		if !matched && funcRVA >= dir.VirtualAddress && uint64(funcRVA) <= uint64(dir.VirtualAddress)+uint64(dir.Size) {
			fwd, err := img.resolveCString(funcRVA)
			if err != nil {
				continue
			}
			table.Records = append(table.Records, ExportRecord{
				Ordinal:   index,
				Forwarder: fwd,
				Kind:      ExportForwarder,
			})
		}
	}

	if walker.truncated {
		table.Truncated = true
	}
	return table, nil
}

// readExportNameTables loads the parallel name pointer and name ordinal
// tables. Either table being unreadable leaves both empty: the walk then
// still yields forwarders and gaps, just no named records.
func (img *Image) readExportNameTables(ed exportDirectory, table *ExportTable) ([]uint32, []uint16) {
	count := ed.numberOfNames
	if count > maxExportNames {
		count = maxExportNames
	}
	if count == 0 {
		return nil, nil
	}

	namesOffset, err := img.Resolve(ed.addressOfNames)
	if err != nil {
		return nil, nil
	}
	ordinalsOffset, err := img.Resolve(ed.addressOfNameOrdinals)
	if err != nil {
		return nil, nil
	}

	rawNames, err := img.readBytes(namesOffset, count*4)
	if err != nil {
		table.Truncated = true
		return nil, nil
	}
	rawOrdinals, err := img.readBytes(ordinalsOffset, count*2)
	if err != nil {
		table.Truncated = true
		return nil, nil
	}

	nameRVAs := make([]uint32, count)
	ordinals := make([]uint16, count)
	for i := uint32(0); i < count; i++ {
		nameRVAs[i] = le32(rawNames[i*4 : i*4+4])
		ordinals[i] = binary.LittleEndian.Uint16(rawOrdinals[i*2 : i*2+2])
	}
	return nameRVAs, ordinals
}

// resolveCString resolves an RVA and reads the NUL-terminated string at
// the resulting offset.
func (img *Image) resolveCString(rva uint32) (string, error) {
	offset, err := img.Resolve(rva)
	if err != nil {
		return "", err
	}
	return img.readCString(offset)
}
