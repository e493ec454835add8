package prepare

import (
	"regexp"
	"strings"
)

// Entry points that make a compiled-language source a complete program.
var mainPatterns = map[string]*regexp.Regexp{
	"c":      regexp.MustCompile(`\b(?:int|void)\s+main\s*\(`),
	"cpp":    regexp.MustCompile(`\b(?:int|void)\s+main\s*\(`),
	"java":   regexp.MustCompile(`\bstatic\s+void\s+main\s*\(`),
	"kotlin": regexp.MustCompile(`\bfun\s+main\s*\(`),
	"go":     regexp.MustCompile(`(?m)^\s*func\s+main\s*\(\s*\)`),
	"rust":   regexp.MustCompile(`\bfn\s+main\s*\(\s*\)`),
	"csharp": regexp.MustCompile(`\bstatic\s+(?:async\s+)?(?:void|int|Task|Task<int>)\s+Main\s*\(`),
	"scala":  regexp.MustCompile(`\bdef\s+main\s*\(|\bextends\s+App\b|@main\b`),
	"dart":   regexp.MustCompile(`(?m)^\s*(?:void\s+|Future<void>\s+)?main\s*\(`),
}

// Top-level line prefixes that only declare things in script languages.
var declarationPrefixes = map[string][]string{
	"python":     {"def ", "async def ", "class ", "import ", "from ", "@", "#"},
	"javascript": {"function ", "function*", "async function ", "class ", "const ", "let ", "var ", "import ", "export ", "'use strict'", "\"use strict\"", "//", "/*", "*", "}"},
	"typescript": {"function ", "async function ", "class ", "const ", "let ", "var ", "import ", "export ", "type ", "interface ", "enum ", "declare ", "//", "/*", "*", "}"},
	"ruby":       {"def ", "class ", "module ", "end", "require", "include ", "attr_", "#"},
	"php":        {"<?php", "?>", "function ", "class ", "final class ", "abstract class ", "interface ", "trait ", "use ", "namespace ", "declare(", "//", "#", "/*", "*", "}"},
	"swift":      {"func ", "class ", "final class ", "struct ", "enum ", "protocol ", "extension ", "import ", "let ", "var ", "@", "//", "/*", "*", "}"},
	"bash":       {"function ", "#", "}"},
}

// Calls that read stdin, which only a complete script does.
var stdinPatterns = map[string]*regexp.Regexp{
	"python":     regexp.MustCompile(`\binput\s*\(|\bsys\.stdin\b|\bopen\s*\(\s*0\s*\)`),
	"javascript": regexp.MustCompile(`process\.stdin|require\(\s*['"](?:readline|fs)['"]\s*\)`),
	"typescript": regexp.MustCompile(`process\.stdin|require\(\s*['"](?:readline|fs)['"]\s*\)|from\s+['"](?:readline|fs)['"]`),
	"ruby":       regexp.MustCompile(`\bgets\b|\bSTDIN\b|\$stdin`),
	"php":        regexp.MustCompile(`php://stdin|\bSTDIN\b|\bfgets\s*\(|\bfscanf\s*\(`),
	"swift":      regexp.MustCompile(`\breadLine\s*\(`),
	"bash":       regexp.MustCompile(`\bread\s+`),
}

var javaPublicClassPattern = regexp.MustCompile(`(?m)^\s*public\s+(?:(?:final|abstract|strictfp)\s+)*class\s+([A-Za-z_$][\w$]*)`)

var bashFunctionPattern = regexp.MustCompile(`^[A-Za-z_]\w*\s*\(\s*\)\s*\{?\s*$`)

// IsCompleteProgram reports whether code already has an entry point or
// top-level statements and must be run unchanged.
func IsCompleteProgram(code, languageID string) bool {
	if re, ok := mainPatterns[languageID]; ok {
		return re.MatchString(code)
	}
	prefixes, ok := declarationPrefixes[languageID]
	if !ok {
		// Unknown script languages are never wrapped.
		return true
	}
	if re, ok := stdinPatterns[languageID]; ok && re.MatchString(code) {
		return true
	}
	if languageID == "python" || languageID == "ruby" {
		return hasTopLevelStatementByIndent(code, prefixes)
	}
	return hasTopLevelStatementByBraces(code, languageID, prefixes)
}

// MainClass returns the public class a Java source declares, which javac
// requires as the file name. Other languages and sources without one return "".
func MainClass(code, languageID string) string {
	if languageID != "java" {
		return ""
	}
	m := javaPublicClassPattern.FindStringSubmatch(code)
	if m == nil {
		return ""
	}
	return m[1]
}

// hasTopLevelStatementByIndent treats unindented lines as top level.
func hasTopLevelStatementByIndent(code string, prefixes []string) bool {
	inDocstring := false
	for _, raw := range strings.Split(normalizeNewlines(code), "\n") {
		line := strings.TrimRight(raw, " \t")
		quotes := strings.Count(line, `"""`) + strings.Count(line, `'''`)
		if inDocstring {
			if quotes%2 == 1 {
				inDocstring = false
			}
			continue
		}
		if quotes%2 == 1 {
			inDocstring = true
			continue
		}
		if line == "" || line[0] == ' ' || line[0] == '\t' {
			continue
		}
		if strings.HasPrefix(line, `"""`) || strings.HasPrefix(line, `'''`) {
			continue
		}
		if !hasAnyPrefix(line, prefixes) {
			return true
		}
	}
	return false
}

// hasTopLevelStatementByBraces treats lines starting at brace depth zero as top level.
func hasTopLevelStatementByBraces(code, languageID string, prefixes []string) bool {
	depth := 0
	inComment := false
	for _, raw := range strings.Split(normalizeNewlines(code), "\n") {
		line := strings.TrimSpace(raw)
		if inComment {
			if strings.Contains(line, "*/") {
				inComment = false
			}
			continue
		}
		if strings.HasPrefix(line, "/*") && !strings.Contains(line, "*/") {
			inComment = true
			continue
		}
		if depth == 0 && line != "" && !hasAnyPrefix(line, prefixes) {
			if !(languageID == "bash" && bashFunctionPattern.MatchString(line)) && line != "{" && line != ")" && line != "});" {
				return true
			}
		}
		depth += strings.Count(line, "{") - strings.Count(line, "}")
		if depth < 0 {
			depth = 0
		}
	}
	return false
}

func hasAnyPrefix(line string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
