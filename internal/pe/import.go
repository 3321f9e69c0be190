package pe

import (
	"fmt"
)

// Import directory layout.
const (
	importDescriptorSize = 20
	thunkSize            = 4
	ordinalFlag32        = 0x80000000

	// The descriptor array is only terminated by an all-zero record, so
	// a defensive cap is the one thing bounding the loop on malformed
	// input. Same for the thunk array of a single module.
	maxImportDescriptors = 4096
	maxImportThunks      = 65536
)

// ImportRecord is one imported symbol of a module. Ordinal-only imports
// carry no name; named imports carry the loader hint.
type ImportRecord struct {
	Name      string
	Hint      uint16
	Ordinal   uint16
	ByOrdinal bool
}

// ModuleImport groups the records of one import descriptor. When the
// module's walk was aborted (unresolvable name or thunk RVA), Err holds
// the reason and Records keeps whatever was read before the failure.
type ModuleImport struct {
	Module  string
	Records []ImportRecord
	Err     error
}

type importDescriptor struct {
	originalFirstThunk uint32
	nameRVA            uint32
	firstThunk         uint32
}

// Imports walks the import descriptor array up to the all-zero sentinel
// and returns one ModuleImport per descriptor. A failure inside one
// module only aborts that module; the remaining descriptors are still
// walked. A missing directory yields nil; a PE32+ image or a zero
// NumberOfRvaAndSizes yields an UnsupportedError.
func (img *Image) Imports() ([]ModuleImport, error) {
	if img.OptionalHeader.NumberOfRvaAndSizes == 0 {
		return nil, &UnsupportedError{Reason: "RVA数量为零，文件已损坏或为64位PE"}
	}
	if img.Is64Bit() {
		return nil, &UnsupportedError{Reason: "不支持遍历64位PE的导入表"}
	}

	dir := img.DataDirectory(dirEntryImports)
	if dir.VirtualAddress == 0 || dir.Size == 0 {
		return nil, nil
	}

	dirOffset, err := img.Resolve(dir.VirtualAddress)
	if err != nil {
		return nil, err
	}

	var modules []ModuleImport
	walker := img.newDirectoryWalker(dirOffset, importDescriptorSize, -1, maxImportDescriptors, allZero)
	for {
		record, ok := walker.next()
		if !ok {
			break
		}

		desc := importDescriptor{
			originalFirstThunk: le32(record[0:4]),
			nameRVA:            le32(record[12:16]),
			firstThunk:         le32(record[16:20]),
		}
		modules = append(modules, img.walkModule(desc))
	}

	if walker.truncated {
		return modules, &TruncatedDirectoryError{Directory: "导入目录"}
	}
	return modules, nil
}

// walkModule reads one module's name and thunk array. The import name
// table is preferred; the address table is the fallback when the linker
// left the former out.
func (img *Image) walkModule(desc importDescriptor) ModuleImport {
	mod := ModuleImport{}

	name, err := img.resolveCString(desc.nameRVA)
	if err != nil {
		mod.Module = fmt.Sprintf("(模块名RVA 0x%X)", desc.nameRVA)
		mod.Err = err
		return mod
	}
	mod.Module = name

	thunkRVA := desc.originalFirstThunk
	if thunkRVA == 0 {
		thunkRVA = desc.firstThunk
	}
	if thunkRVA == 0 {
		mod.Err = &MalformedRecordError{Reason: "导入描述符没有可用的thunk数组"}
		return mod
	}

	thunkOffset, err := img.Resolve(thunkRVA)
	if err != nil {
		mod.Err = err
		return mod
	}

	walker := img.newDirectoryWalker(thunkOffset, thunkSize, -1, maxImportThunks, allZero)
	for {
		record, ok := walker.next()
		if !ok {
			break
		}

		value := le32(record)
		if value&ordinalFlag32 != 0 {
			// Import by ordinal; no name is stored for these.
			mod.Records = append(mod.Records, ImportRecord{
				Ordinal:   uint16(value & 0xFFFF),
				ByOrdinal: true,
			})
			continue
		}

		// The thunk value is an RVA to a (hint, name) pair.
		nameOffset, err := img.Resolve(value)
		if err != nil {
			mod.Err = err
			return mod
		}
		hint, err := img.readU16(nameOffset)
		if err != nil {
			mod.Err = err
			return mod
		}
		funcName, err := img.readCString(nameOffset + 2)
		if err != nil {
			mod.Err = err
			return mod
		}

		mod.Records = append(mod.Records, ImportRecord{
			Name: funcName,
			Hint: hint,
		})
	}

	if walker.truncated {
		mod.Err = &TruncatedDirectoryError{Directory: "导入thunk数组"}
	}
	return mod
}
