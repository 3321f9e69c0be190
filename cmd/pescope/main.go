// Package main provides the PEScope CLI tool.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/pescope-dev/pescope/internal/cli"
	"github.com/pescope-dev/pescope/internal/pe"
)

var (
	showAll      = flag.Bool("a", false, "显示所有信息（等价于 -n -d -s -e -i）")
	showNT       = flag.Bool("n", false, "显示NT头详细信息")
	showDOS      = flag.Bool("d", false, "显示DOS头与存根的十六进制转储")
	showSections = flag.Bool("s", false, "显示节区表（虚拟地址、权限、熵值）")
	showExports  = flag.Bool("e", false, "显示导出表（按解析后的名称排序）")
	showImports  = flag.Bool("i", false, "显示导入表（按模块分组）")

	verbose        = flag.Bool("v", false, "详细模式：显示所有导入/导出函数")
	suspiciousOnly = flag.Bool("suspicious", false, "节区表仅显示可疑节区（RWX权限）")
	noDemangle     = flag.Bool("no-demangle", false, "不解析符号名称，显示原始修饰名")
	fullSignature  = flag.Bool("full-sig", false, "解析完整签名（调用约定和返回类型）")
)

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	if err := analyzePE(flag.Arg(0)); err != nil {
		red := color.New(color.FgRed, color.Bold)
		_, _ = red.Fprintf(os.Stderr, "\n错误: %v\n\n", err)
		os.Exit(1)
	}
}

func analyzePE(filepath string) error {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return fmt.Errorf("读取文件失败: %w", err)
	}

	info, err := pe.Analyze(filepath, data)
	if err != nil {
		return fmt.Errorf("解析PE文件失败: %w", err)
	}

	reporter := cli.NewReporter(info)
	reporter.SetVerbose(*verbose)
	reporter.SetSuspiciousOnly(*suspiciousOnly)
	reporter.SetNoDemangle(*noDemangle)
	reporter.SetFullSignature(*fullSignature)

	if *showAll {
		reporter.Print()
		return nil
	}

	reporter.PrintHeader()
	reporter.PrintBasicInfo()

	if *showNT {
		reporter.PrintNTHeaders()
	}
	if *showDOS {
		reporter.PrintDOSStub()
	}
	if *showSections || *suspiciousOnly {
		reporter.PrintSections()
	}
	if *showExports {
		reporter.PrintExports()
	}
	if *showImports {
		reporter.PrintImports()
	}

	reporter.PrintWarnings()
	return nil
}

func printUsage() {
	fmt.Println("PEScope - PE文件只读分析工具")
	fmt.Println("\n用法:")
	fmt.Println("  pescope [选项] <PE文件路径>")
	fmt.Println("\n查看选项:")
	fmt.Println("  -a              显示所有信息")
	fmt.Println("  -n              显示NT头详细信息")
	fmt.Println("  -d              显示DOS头与存根的十六进制转储")
	fmt.Println("  -s              显示节区表")
	fmt.Println("  -e              显示导出表")
	fmt.Println("  -i              显示导入表")
	fmt.Println("  -v              详细模式：不截断函数列表")
	fmt.Println("  -suspicious     节区表仅显示RWX节区")
	fmt.Println("  -no-demangle    显示原始修饰名")
	fmt.Println("  -full-sig       解析调用约定和返回类型")
	fmt.Println("\n示例:")
	fmt.Println("  pescope program.exe")
	fmt.Println("  pescope -a program.exe")
	fmt.Println("  pescope -e -full-sig library.dll")
	fmt.Println("  pescope -s -suspicious suspect.exe")
}
