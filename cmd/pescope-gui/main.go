// Package main provides the PEScope GUI application.
package main

import (
	"fmt"
	"os"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/pescope-dev/pescope/internal/demangle"
	"github.com/pescope-dev/pescope/internal/pe"
)

func main() {
	myApp := app.New()
	myWindow := myApp.NewWindow("PEScope - PE文件只读分析工具")
	myWindow.Resize(fyne.NewSize(900, 700))

	// File path
	filePathEntry := widget.NewEntry()
	filePathEntry.SetPlaceHolder("选择PE文件...")

	// Analysis output
	analysisOutput := widget.NewMultiLineEntry()
	analysisOutput.SetPlaceHolder("分析结果将显示在这里...")
	analysisOutput.Disable()

	// Options
	demangleCheck := widget.NewCheck("解析符号名称", nil)
	demangleCheck.SetChecked(true)

	// Status label
	statusLabel := widget.NewLabel("就绪")

	// File picker button
	fileButton := widget.NewButton("选择文件", func() {
		dialog.ShowFileOpen(func(file fyne.URIReadCloser, err error) {
			if err != nil || file == nil {
				return
			}
			defer func() { _ = file.Close() }()
			filePathEntry.SetText(file.URI().Path())
		}, myWindow)
	})

	// Analyze button
	analyzeButton := widget.NewButton("分析", func() {
		if filePathEntry.Text == "" {
			dialog.ShowError(fmt.Errorf("请先选择PE文件"), myWindow)
			return
		}

		statusLabel.SetText("正在分析...")
		go func() {
			result, err := analyzePEFile(filePathEntry.Text, demangleCheck.Checked)
			// Widget updates from a worker goroutine must go through
			// the fyne event loop.
			fyne.Do(func() {
				if err != nil {
					dialog.ShowError(err, myWindow)
					statusLabel.SetText("分析失败")
					return
				}
				analysisOutput.SetText(result)
				statusLabel.SetText("分析完成")
			})
		}()
	})

	// Layout
	fileBox := container.NewBorder(nil, nil, nil, fileButton, filePathEntry)

	analysisBox := container.NewVScroll(analysisOutput)

	mainContent := container.NewBorder(
		container.NewVBox(
			widget.NewLabel("PE文件路径:"),
			fileBox,
			demangleCheck,
			widget.NewSeparator(),
			analyzeButton,
		),
		container.NewVBox(
			widget.NewSeparator(),
			statusLabel,
		),
		nil,
		nil,
		analysisBox,
	)

	myWindow.SetContent(mainContent)
	myWindow.ShowAndRun()
}

func analyzePEFile(filepath string, demangleNames bool) (string, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return "", err
	}

	info, err := pe.Analyze(filepath, data)
	if err != nil {
		return "", err
	}

	// Format output
	var output strings.Builder
	output.WriteString(fmt.Sprintf("文件路径: %s\n", info.FilePath))
	output.WriteString(fmt.Sprintf("文件大小: %d 字节\n", info.FileSize))
	output.WriteString(fmt.Sprintf("架构: %s\n", info.Image.Architecture()))
	output.WriteString(fmt.Sprintf("子系统: %s\n", info.Image.SubsystemName()))
	output.WriteString(fmt.Sprintf("入口点: 0x%X\n", info.Image.OptionalHeader.AddressOfEntryPoint))
	output.WriteString(fmt.Sprintf("镜像基址: 0x%X\n", info.Image.OptionalHeader.ImageBase))

	if info.Checksum.Stored != 0 {
		if info.Checksum.Valid {
			output.WriteString(fmt.Sprintf("校验和: ✓ 有效 (0x%08X)\n", info.Checksum.Stored))
		} else {
			output.WriteString(fmt.Sprintf("校验和: ✗ 无效 (存储: 0x%08X, 计算: 0x%08X)\n",
				info.Checksum.Stored, info.Checksum.Computed))
		}
	}

	if info.Signature.Present {
		output.WriteString(fmt.Sprintf("数字签名: 存在 (偏移: 0x%X, %d 字节)\n",
			info.Signature.Offset, info.Signature.Size))
	} else {
		output.WriteString("数字签名: 无\n")
	}

	output.WriteString(fmt.Sprintf("\n节区信息 (%d 个):\n", len(info.Sections)))
	for _, section := range info.Sections {
		output.WriteString(fmt.Sprintf("  %s: 权限=%s, 熵值=%.2f\n",
			section.Name, section.Permissions, section.Entropy))
	}

	output.WriteString(fmt.Sprintf("\n导入表 (%d 个模块):\n", len(info.Imports)))
	for i, mod := range info.Imports {
		if i >= 10 {
			output.WriteString(fmt.Sprintf("  ... (还有 %d 个模块)\n", len(info.Imports)-10))
			break
		}
		output.WriteString(fmt.Sprintf("  %s (%d 个函数)\n", mod.Module, len(mod.Records)))
	}

	if info.Exports != nil {
		output.WriteString(fmt.Sprintf("\n导出表 (%d 条记录):\n", len(info.Exports.Records)))
		for i, rec := range info.Exports.Records {
			if i >= 20 {
				output.WriteString(fmt.Sprintf("  ... (还有 %d 条记录)\n", len(info.Exports.Records)-20))
				break
			}
			if rec.Kind == pe.ExportForwarder {
				output.WriteString(fmt.Sprintf("  FWD   -> %s\n", rec.Forwarder))
				continue
			}
			name := rec.Name
			if demangleNames {
				name = demangle.Demangle(rec.Name, true)
			}
			output.WriteString(fmt.Sprintf("  0x%03X %s\n", rec.Ordinal, name))
		}
	}

	if len(info.Warnings) > 0 {
		output.WriteString("\n警告:\n")
		for _, w := range info.Warnings {
			output.WriteString(fmt.Sprintf("  %s\n", w))
		}
	}

	return output.String(), nil
}
