// Package demangle decodes MSVC-mangled symbol names into readable
// signatures. It covers the common subset of the scheme (special
// members, class methods, free functions, template class placeholders)
// and never fails: anything unrecognized degrades to a best-effort
// rendering of the input.
package demangle

import "strings"

// Codes following the second '?' marker of a special member function.
// The scheme has one code per digit and letter; only the common three
// are decoded here.
const (
	codeConstructor    = '0'
	codeDestructor     = '1'
	codeOperatorAssign = '4'
)

var callingConventions = map[byte]string{
	'A': "__cdecl",
	'I': "__fastcall",
	'E': "__thiscall",
	'G': "__stdcall",
}

var typeNames = map[byte]string{
	'C': "signed char",
	'D': "char",
	'E': "unsigned char",
	'F': "short",
	'G': "unsigned short",
	'H': "int",
	'I': "unsigned int",
	'J': "long",
	'K': "unsigned long",
	'M': "float",
	'N': "double",
	'O': "long double",
	// Placeholders: pointer and aggregate types are not decoded further.
	'P': "void*",
	'Q': "void[]",
	'U': "struct*",
	'V': "class*",
	'X': "void",
	'Z': "...",
}

// Demangle decodes one mangled symbol name. With baseNameOnly the result
// is just the qualified name; otherwise the calling convention and
// return type are decoded too. Parameter lists and template arguments
// are not decoded.
func Demangle(name string, baseNameOnly bool) string {
	if name == "" {
		return ""
	}

	// MSVC C++ names always start with a question mark; everything else
	// is treated as a C symbol.
	if name[0] != '?' {
		return demangleC(name)
	}

	// Up to three '@'-separated fields: function, class, namespace. Two
	// adjacent separators ("@@") end the name sections early.
	function, afterFunction, terminated := splitField(name[1:])

	var class, namespace string
	afterClass := ""
	hasClass := false
	if moreFields(afterFunction, terminated) {
		class, afterClass, terminated = splitField(afterFunction)
		hasClass = true
		if moreFields(afterClass, terminated) {
			namespace, _, _ = splitField(afterClass)
		}
	}

	var out string
	switch {
	case len(function) >= 2 && function[0] == '?':
		out = demangleSpecial(function, class, hasClass)
	case hasClass && class != "":
		out = demangleMethod(class, function, afterClass, baseNameOnly)
	default:
		out = demangleFunction(function, afterFunction, baseNameOnly)
	}

	if namespace != "" {
		return namespace + "::" + out
	}
	return out
}

// splitField extracts the text up to the next '@' separator. It returns
// the field, the remaining input after the separator, and whether a
// separator was actually found.
func splitField(s string) (field, rest string, terminated bool) {
	if i := strings.IndexByte(s, '@'); i >= 0 {
		return s[:i], s[i+1:], true
	}
	return s, "", false
}

// moreFields reports whether another name field follows: the previous
// field must have been terminated by a single '@' with text after it.
func moreFields(rest string, terminated bool) bool {
	return terminated && rest != "" && rest[0] != '@'
}

// demangleC handles plain C symbols: drop one leading '_' or '@' prefix
// byte, keep everything up to the first '@' (stack-size decorations and
// the like), and render as a call. This is also the fallback shape for
// anything the other branches cannot place.
func demangleC(name string) string {
	if name[0] == '_' || name[0] == '@' {
		name = name[1:]
	}
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	return name + "()"
}

// demangleSpecial renders constructors, destructors and operator=. The
// qualifier is the class field when one exists, otherwise the bare
// function name stands in for its own type.
func demangleSpecial(function, class string, hasClass bool) string {
	code := function[1]
	body := function[2:]

	qualifier := class
	if !hasClass || qualifier == "" {
		qualifier = body
	}

	switch code {
	case codeConstructor:
		return qualifier + "::" + body + "::" + body + "()"
	case codeDestructor:
		return qualifier + "::" + body + "::~" + body + "()"
	case codeOperatorAssign:
		return qualifier + "::" + body + "::operator=()"
	default:
		// Unrecognized member code: keep whatever reads like a name and
		// tack on a placeholder.
		i := 0
		for i < len(body) && (body[i] == '_' || !isAlpha(body[i])) {
			i++
		}
		return qualifier + "::" + body[i:] + "::???"
	}
}

// demangleMethod renders a class method. A "?$" class prefix marks a
// template class; its arguments are not decoded, only flagged with a
// generic parameter.
func demangleMethod(class, function, tail string, baseNameOnly bool) string {
	if strings.HasPrefix(class, "?$") {
		class = class[2:] + "<T>"
	}

	base := class + "::" + function + "()"
	if baseNameOnly {
		return base
	}

	// 'Q' follows the '@' that ended a class name; 'S' and '2' appear on
	// static members.
	conv, ret := decodeSignature(tail, "@QS2")
	return joinParts(ret, conv, base)
}

// demangleFunction renders a free function. 'Y' marks a non-member
// function after the name fields.
func demangleFunction(function, tail string, baseNameOnly bool) string {
	base := function + "()"
	if baseNameOnly {
		return base
	}

	conv, ret := decodeSignature(tail, "@Y")
	return joinParts(ret, conv, base)
}

// decodeSignature skips the given marker bytes, then decodes one calling
// convention code and one return type code. Unknown codes and truncated
// input contribute empty strings, never an error.
func decodeSignature(s, skip string) (conv, ret string) {
	i := 0
	for i < len(s) && strings.IndexByte(skip, s[i]) >= 0 {
		i++
	}
	if i >= len(s) {
		return "", ""
	}

	conv = callingConventions[s[i]]
	i++

	// '_' prefixes an extended type; the prefix itself is just skipped.
	if i < len(s) && s[i] == '_' {
		i++
	}
	if i < len(s) {
		ret = typeNames[s[i]]
	}
	return conv, ret
}

func joinParts(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
