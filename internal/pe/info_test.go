package pe

import (
	"fmt"
	"testing"
)

func TestAnalyzeCollectsSections(t *testing.T) {
	data := buildImage(0x800, []Section{
		testSection(".text", 0x1000, 0x1000, 0x400, 0x200, scnCntCode|scnMemRead|scnMemExecute),
		testSection(".data", 0x2000, 0x1000, 0x600, 0x200, scnCntInitializedData|scnMemRead|scnMemWrite),
	}, nil)

	info, err := Analyze("test.exe", data)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if info.FilePath != "test.exe" {
		t.Errorf("FilePath = %q, want %q", info.FilePath, "test.exe")
	}
	if info.FileSize != 0x800 {
		t.Errorf("FileSize = %d, want %d", info.FileSize, 0x800)
	}
	if len(info.Sections) != 2 {
		t.Fatalf("len(Sections) = %d, want 2", len(info.Sections))
	}
	if info.Sections[0].Name != ".text" || info.Sections[0].Permissions != "R-X" {
		t.Errorf("Sections[0] = %+v, want .text R-X", info.Sections[0])
	}
	if info.Sections[1].Name != ".data" || info.Sections[1].Permissions != "RW-" {
		t.Errorf("Sections[1] = %+v, want .data RW-", info.Sections[1])
	}
	if len(info.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", info.Warnings)
	}
}

func TestAnalyzeDegradesToWarnings(t *testing.T) {
	// Zero NumberOfRvaAndSizes: directory walks are unsupported, but the
	// analysis as a whole still succeeds with warnings.
	data := buildImage(0x800, nil, nil)
	putU32(data, testOptOffset+92, 0)

	info, err := Analyze("broken.exe", data)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if info.Exports != nil {
		t.Errorf("Exports = %+v, want nil", info.Exports)
	}
	if info.Imports != nil {
		t.Errorf("Imports = %+v, want nil", info.Imports)
	}
	if len(info.Warnings) != 2 {
		t.Errorf("Warnings = %v, want one each for exports and imports", info.Warnings)
	}
}

func TestAnalyzeRejectsGarbage(t *testing.T) {
	if _, err := Analyze("garbage.bin", []byte("not a PE file at all")); err == nil {
		t.Error("Analyze() error = nil, want signature error")
	}
}

func TestArchitecture(t *testing.T) {
	tests := []struct {
		machine uint16
		want    string
	}{
		{0x14C, "x86 (32位)"},
		{0x8664, "x64 (64位)"},
		{0xAA64, "ARM64"},
		{0x1234, "未知 (0x1234)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			img := &Image{FileHeader: FileHeader{Machine: tt.machine}}
			if got := img.Architecture(); got != tt.want {
				t.Errorf("Architecture() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSubsystemName(t *testing.T) {
	tests := []struct {
		subsystem uint16
		want      string
	}{
		{2, "Windows GUI"},
		{3, "Windows 控制台"},
		{1, "Native"},
		{0xFF, "未知 (0xFF)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			img := &Image{OptionalHeader: OptionalHeader{Subsystem: tt.subsystem}}
			if got := img.SubsystemName(); got != tt.want {
				t.Errorf("SubsystemName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCharacteristicNames(t *testing.T) {
	tests := []struct {
		name string
		char uint16
		want string
	}{
		{
			name: "executable",
			char: 0x0002,
			want: "EXE",
		},
		{
			name: "dll",
			char: 0x2000 | 0x0002,
			want: "EXE DLL",
		},
		{
			name: "none",
			char: 0,
			want: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := &Image{FileHeader: FileHeader{Characteristics: tt.char}}
			if got := img.CharacteristicNames(); got != tt.want {
				t.Errorf("CharacteristicNames() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSignaturePresence(t *testing.T) {
	signed := buildImage(0x800, nil, map[int]DataDirectory{
		dirEntrySecurity: {VirtualAddress: 0x600, Size: 0x100},
	})

	img := mustParse(t, signed)
	sig := img.Signature()
	if !sig.Present {
		t.Fatal("Present = false, want true")
	}
	// The security directory address is a file offset, not an RVA.
	if sig.Offset != 0x600 || sig.Size != 0x100 {
		t.Errorf("Signature() = %+v, want offset 0x600 size 0x100", sig)
	}

	unsigned := mustParse(t, buildImage(0x800, nil, nil))
	if unsigned.Signature().Present {
		t.Error("Present = true for an unsigned image, want false")
	}
}

func ExampleAnalyze() {
	data := buildImage(0x800, []Section{
		testSection(".text", 0x1000, 0x1000, 0x400, 0x400, scnCntCode|scnMemRead|scnMemExecute),
	}, nil)

	info, err := Analyze("example.exe", data)
	if err != nil {
		fmt.Println("解析失败:", err)
		return
	}

	fmt.Println(info.Image.Architecture())
	fmt.Println(info.Sections[0].Name, info.Sections[0].Permissions)
	// Output:
	// x86 (32位)
	// .text R-X
}
