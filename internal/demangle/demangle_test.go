package demangle

import (
	"strings"
	"testing"
)

func TestDemangleBaseName(t *testing.T) {
	tests := []struct {
		name    string
		mangled string
		want    string
	}{
		{
			name:    "empty input",
			mangled: "",
			want:    "",
		},
		{
			name:    "plain C symbol",
			mangled: "CreateFileA",
			want:    "CreateFileA()",
		},
		{
			name:    "stdcall decorated C symbol",
			mangled: "_foo@4",
			want:    "foo()",
		},
		{
			name:    "fastcall decorated C symbol",
			mangled: "@fastfunc@8",
			want:    "fastfunc()",
		},
		{
			name:    "constructor",
			mangled: "??0Widget@@QAE@XZ",
			want:    "Widget::Widget::Widget()",
		},
		{
			name:    "destructor",
			mangled: "??1Widget@@QAE@XZ",
			want:    "Widget::Widget::~Widget()",
		},
		{
			name:    "assignment operator",
			mangled: "??4Widget@@QAEAAV0@@Z",
			want:    "Widget::Widget::operator=()",
		},
		{
			name:    "class method",
			mangled: "?Enter@CritSect@@QAEXXZ",
			want:    "CritSect::Enter()",
		},
		{
			name:    "namespaced method",
			mangled: "?Open@File@io@@QAEXXZ",
			want:    "io::File::Open()",
		},
		{
			name:    "template class method",
			mangled: "?Get@?$Vector@@QAEHXZ",
			want:    "Vector<T>::Get()",
		},
		{
			name:    "free function",
			mangled: "?free@@YAXPAX@Z",
			want:    "free()",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Demangle(tt.mangled, true); got != tt.want {
				t.Errorf("Demangle(%q, true) = %q, want %q", tt.mangled, got, tt.want)
			}
		})
	}
}

func TestDemangleFullSignature(t *testing.T) {
	tests := []struct {
		name    string
		mangled string
		want    string
	}{
		{
			name:    "stdcall method returning int",
			mangled: "?Alloc@Heap@@QGHXZ",
			want:    "int __stdcall Heap::Alloc()",
		},
		{
			name:    "cdecl free function returning void",
			mangled: "?free@@YAXPAX@Z",
			want:    "void __cdecl free()",
		},
		{
			name:    "unknown codes degrade to the base name",
			mangled: "?Weird@Cls@@!!",
			want:    "Cls::Weird()",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Demangle(tt.mangled, false); got != tt.want {
				t.Errorf("Demangle(%q, false) = %q, want %q", tt.mangled, got, tt.want)
			}
		})
	}
}

// Demangle must return something for any input, however hostile; a
// panic here is a bug.
func TestDemangleNeverPanics(t *testing.T) {
	inputs := []string{
		"?",
		"??",
		"???",
		"?@",
		"?@@",
		"??0",
		"??0@@",
		"??9@@",
		"?$",
		"??$",
		"@",
		"@@",
		"_",
		"?a@?$@@",
		"?x@y@z@w@v@@",
		strings.Repeat("?", 1000),
		strings.Repeat("@", 1000),
		"?\x00\xFF@\x01@@",
	}

	for _, input := range inputs {
		got := Demangle(input, true)
		_ = got
		got = Demangle(input, false)
		_ = got
	}
}
