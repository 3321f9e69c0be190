// Package cli provides command-line interface utilities.
package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/pescope-dev/pescope/internal/demangle"
	"github.com/pescope-dev/pescope/internal/pe"
)

const maxMangledDisplay = 60

// Reporter formats and prints PE analysis results.
type Reporter struct {
	info           *pe.Info
	verbose        bool
	suspiciousOnly bool
	noDemangle     bool
	fullSignature  bool
}

// NewReporter creates a new reporter for the given PE info.
func NewReporter(info *pe.Info) *Reporter {
	return &Reporter{info: info}
}

// SetVerbose enables verbose mode (show all functions).
func (r *Reporter) SetVerbose(verbose bool) {
	r.verbose = verbose
}

// SetSuspiciousOnly enables suspicious-only mode (show RWX sections only).
func (r *Reporter) SetSuspiciousOnly(suspicious bool) {
	r.suspiciousOnly = suspicious
}

// SetNoDemangle disables symbol demangling in export/import listings.
func (r *Reporter) SetNoDemangle(noDemangle bool) {
	r.noDemangle = noDemangle
}

// SetFullSignature enables full-signature demangling (calling convention
// and return type, not just the qualified name).
func (r *Reporter) SetFullSignature(full bool) {
	r.fullSignature = full
}

func (r *Reporter) demangled(name string) string {
	if r.noDemangle {
		return name
	}
	return demangle.Demangle(name, !r.fullSignature)
}

// Print outputs the full report: banner, summary, every optional
// section, and the warnings collected during analysis.
func (r *Reporter) Print() {
	r.PrintHeader()
	r.PrintBasicInfo()
	r.PrintNTHeaders()
	r.PrintDOSStub()
	r.PrintSections()
	r.PrintExports()
	r.PrintImports()
	r.PrintWarnings()
}

// PrintHeader outputs the report banner.
func (r *Reporter) PrintHeader() {
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Println("\n╔════════════════════════════════════════╗")
	cyan.Println("║          PEScope 分析报告              ║")
	cyan.Println("╚════════════════════════════════════════╝")
}

// PrintBasicInfo outputs the one-screen summary.
func (r *Reporter) PrintBasicInfo() {
	img := r.info.Image

	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Println("\n【基本信息】")

	fmt.Printf("  %-20s: %s\n", "文件路径", r.info.FilePath)
	fmt.Printf("  %-20s: %s\n", "文件大小", formatSize(r.info.FileSize))
	fmt.Printf("  %-20s: %s\n", "架构", img.Architecture())
	fmt.Printf("  %-20s: %s\n", "子系统", img.SubsystemName())
	fmt.Printf("  %-20s: 0x%X\n", "入口点", img.OptionalHeader.AddressOfEntryPoint)
	fmt.Printf("  %-20s: 0x%X\n", "镜像基址", img.OptionalHeader.ImageBase)

	fmt.Printf("  %-20s: ", "校验和")
	switch {
	case r.info.Checksum.Stored == 0:
		gray := color.New(color.FgHiBlack)
		gray.Print("未设置")
	case r.info.Checksum.Valid:
		green := color.New(color.FgGreen)
		green.Printf("✓ 有效 (0x%08X)", r.info.Checksum.Stored)
	default:
		red := color.New(color.FgRed, color.Bold)
		red.Printf("✗ 无效 (存储: 0x%08X, 计算: 0x%08X)",
			r.info.Checksum.Stored, r.info.Checksum.Computed)
	}
	fmt.Println()

	fmt.Printf("  %-20s: ", "数字签名")
	if r.info.Signature.Present {
		fmt.Printf("存在 (偏移: 0x%X, %s)\n",
			r.info.Signature.Offset, formatSize(int64(r.info.Signature.Size)))
	} else {
		fmt.Println("无")
	}
}

// PrintNTHeaders outputs the file header and optional header fields.
func (r *Reporter) PrintNTHeaders() {
	img := r.info.Image
	fh := img.FileHeader
	oh := img.OptionalHeader

	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Println("\n【NT头】")

	timestamp := time.Unix(int64(fh.TimeDateStamp), 0).UTC()

	fmt.Println("  ---- IMAGE_FILE_HEADER ----")
	fmt.Printf("  %-20s: %s\n", "机器架构", img.Architecture())
	fmt.Printf("  %-20s: %d\n", "节区数量", fh.NumberOfSections)
	fmt.Printf("  %-20s: 0x%X => %s\n", "时间戳", fh.TimeDateStamp,
		timestamp.Format("2006-01-02 15:04:05 UTC"))
	fmt.Printf("  %-20s: %d\n", "符号表指针", fh.PointerToSymbolTable)
	fmt.Printf("  %-20s: %d\n", "符号数量", fh.NumberOfSymbols)
	fmt.Printf("  %-20s: %d\n", "可选头大小", fh.SizeOfOptionalHeader)
	fmt.Printf("  %-20s: %s\n", "镜像特征", img.CharacteristicNames())

	fmt.Println("\n  ---- IMAGE_OPTIONAL_HEADER ----")
	fmt.Printf("  %-20s: 0x%X\n", "Magic", oh.Magic)
	fmt.Printf("  %-20s: %d.%d\n", "链接器版本", oh.MajorLinkerVersion, oh.MinorLinkerVersion)
	fmt.Printf("  %-20s: %s\n", "代码大小", formatSize(int64(oh.SizeOfCode)))
	fmt.Printf("  %-20s: %s\n", "已初始化数据大小", formatSize(int64(oh.SizeOfInitializedData)))
	fmt.Printf("  %-20s: %s\n", "未初始化数据大小", formatSize(int64(oh.SizeOfUninitializedData)))
	fmt.Printf("  %-20s: %d\n", "RVA数量", oh.NumberOfRvaAndSizes)
	fmt.Printf("  %-20s: 0x%X\n", "入口点", oh.AddressOfEntryPoint)
	fmt.Printf("  %-20s: %s\n", "子系统", img.SubsystemName())
	fmt.Printf("  %-20s: 0x%X\n", "DLL特征", oh.DLLCharacteristics)
}

// PrintDOSStub hex-dumps the DOS header and stub program, paired with
// the ASCII rendering of the printable bytes.
func (r *Reporter) PrintDOSStub() {
	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Println("\n【DOS头与存根】")

	region := r.info.Image.DOSRegion()
	if len(region) == 0 {
		fmt.Println("  (空)")
		return
	}

	cyan := color.New(color.FgCyan)
	const rowLen = 16
	for start := 0; start < len(region); start += rowLen {
		end := start + rowLen
		if end > len(region) {
			end = len(region)
		}
		row := region[start:end]

		fmt.Printf("  %08X  ", start)
		for i := 0; i < rowLen; i++ {
			if i < len(row) {
				fmt.Printf("%02X ", row[i])
			} else {
				fmt.Print("   ")
			}
		}

		ascii := make([]byte, len(row))
		for i, b := range row {
			if b >= 0x20 && b < 0x7F {
				ascii[i] = b
			} else {
				ascii[i] = ' '
			}
		}
		cyan.Printf(" | %s |\n", string(ascii))
	}
}

// PrintSections outputs the section table with permissions and entropy.
func (r *Reporter) PrintSections() {
	sections := r.info.Sections

	// Filter suspicious sections if flag is set
	if r.suspiciousOnly {
		var suspicious []pe.SectionInfo
		for _, s := range sections {
			if s.Permissions == "RWX" {
				suspicious = append(suspicious, s)
			}
		}
		sections = suspicious
	}

	yellow := color.New(color.FgYellow, color.Bold)
	if r.suspiciousOnly {
		yellow.Printf("\n【可疑节区】(共 %d 个)\n", len(sections))
	} else {
		yellow.Printf("\n【节区信息】(共 %d 个)\n", len(sections))
	}

	if len(sections) == 0 {
		if r.suspiciousOnly {
			fmt.Println("  未发现可疑节区")
		} else {
			fmt.Println("  未发现节区")
		}
		return
	}

	fmt.Println(strings.Repeat("-", 100))
	fmt.Printf("  %-10s %-12s %-12s %-12s %-8s %-8s %s\n",
		"名称", "虚拟地址", "虚拟大小", "原始大小", "权限", "熵值", "特征")
	fmt.Println(strings.Repeat("-", 100))

	for _, section := range sections {
		// Highlight dangerous permissions (RWX)
		permColor := color.New(color.FgWhite)
		if section.Permissions == "RWX" {
			permColor = color.New(color.FgRed, color.Bold)
		} else if strings.Contains(section.Permissions, "X") {
			permColor = color.New(color.FgYellow)
		}

		fmt.Printf("  %-10s 0x%08X   %-12s %-12s ",
			section.Name,
			section.VirtualAddress,
			formatSize(int64(section.VirtualSize)),
			formatSize(int64(section.RawSize)),
		)
		permColor.Printf("%-8s", section.Permissions)
		fmt.Printf(" %-8.2f %s\n", section.Entropy, section.Flags)
	}
	fmt.Println(strings.Repeat("-", 100))
}

// PrintExports outputs the export table, sorted by demangled name:
// ordinal (or FWD), demangled name, raw mangled name.
func (r *Reporter) PrintExports() {
	yellow := color.New(color.FgYellow, color.Bold)

	exports := r.info.Exports
	if exports == nil {
		yellow.Println("\n【导出表】")
		fmt.Println("  无法遍历导出表（见警告）")
		return
	}

	yellow.Printf("\n【导出表】(共 %d 条记录)\n", len(exports.Records))
	if exports.ModuleName != "" {
		fmt.Printf("  模块名称: %s\n", exports.ModuleName)
	}
	fmt.Printf("  函数数量: %d, 名称数量: %d, 序号基址: %d\n",
		exports.NumberOfFunctions, exports.NumberOfNames, exports.OrdinalBase)

	if len(exports.Records) == 0 {
		fmt.Println("  未发现导出")
		return
	}

	type row struct {
		ordinal   string
		name      string
		demangled string
	}
	rows := make([]row, 0, len(exports.Records))
	for _, rec := range exports.Records {
		if rec.Kind == pe.ExportForwarder {
			rows = append(rows, row{
				ordinal:   "FWD  ",
				name:      truncate(rec.Forwarder, maxMangledDisplay),
				demangled: r.demangled(rec.Forwarder),
			})
			continue
		}
		rows = append(rows, row{
			ordinal:   fmt.Sprintf("0x%03X", rec.Ordinal),
			name:      truncate(rec.Name, maxMangledDisplay),
			demangled: r.demangled(rec.Name),
		})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].demangled < rows[j].demangled })

	longest := 1
	for _, row := range rows {
		if len(row.demangled) > longest {
			longest = len(row.demangled)
		}
	}

	maxDisplay := 20
	if r.verbose {
		maxDisplay = len(rows)
	}

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	fmt.Printf("\n  %-6s %-*s %s\n", "序号", longest, "函数名", "原始名称")
	fmt.Printf("  %-6s %-*s %s\n", "----", longest, "------", "--------")
	for i, row := range rows {
		if i >= maxDisplay {
			gray := color.New(color.FgHiBlack)
			gray.Printf("  ... (还有 %d 条记录)\n", len(rows)-maxDisplay)
			break
		}
		fmt.Printf("  %-6s ", row.ordinal)
		green.Printf("%-*s ", longest, row.demangled)
		red.Printf("%s\n", row.name)
	}
	fmt.Printf("  共定位并解析 %d 个导出。\n", len(rows))
}

// PrintImports outputs the module list followed by per-module symbols.
func (r *Reporter) PrintImports() {
	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Printf("\n【导入表】(共 %d 个模块)\n", len(r.info.Imports))

	if len(r.info.Imports) == 0 {
		fmt.Println("  未发现导入")
		return
	}

	cyan := color.New(color.FgCyan)
	for _, mod := range r.info.Imports {
		cyan.Printf("  %s\n", mod.Module)
	}

	total := 0
	for _, mod := range r.info.Imports {
		green := color.New(color.FgGreen)
		green.Printf("\n  %s (%d 个函数)\n", mod.Module, len(mod.Records))

		if mod.Err != nil {
			red := color.New(color.FgRed)
			red.Printf("    ⚠ 已跳过: %v\n", mod.Err)
		}

		maxDisplay := 10
		if r.verbose {
			maxDisplay = len(mod.Records)
		}

		for i, rec := range mod.Records {
			if i >= maxDisplay {
				gray := color.New(color.FgHiBlack)
				gray.Printf("    ... (还有 %d 个函数)\n", len(mod.Records)-maxDisplay)
				break
			}
			if rec.ByOrdinal {
				fmt.Printf("    0x%04X  ???\n", rec.Ordinal)
				continue
			}
			fmt.Printf("    0x%04X  %s\n", rec.Hint, r.demangled(rec.Name))
		}
		total += len(mod.Records)
	}

	fmt.Printf("\n  共定位 %d 个依赖模块，%d 个符号。\n", len(r.info.Imports), total)
}

// PrintWarnings outputs the recoverable problems met during analysis.
func (r *Reporter) PrintWarnings() {
	if len(r.info.Warnings) == 0 {
		return
	}
	yellow := color.New(color.FgYellow)
	fmt.Println()
	for _, w := range r.info.Warnings {
		yellow.Printf("⚠️  %s\n", w)
	}
}

func truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen-4] + "..."
	}
	return s
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
