package prepare

import (
	"regexp"
	"strings"
)

const fallbackEntry = "solution"

var identPattern = regexp.MustCompile(`^[A-Za-z_$][\w$]*$`)

var cFamilyMethod = regexp.MustCompile(`(?m)^\s*(?:(?:static|inline|virtual|constexpr|extern|const)\s+)*[A-Za-z_][\w:<>,\s]*?[\s\*&]+([A-Za-z_]\w*)\s*\([^;{}]*\)\s*(?:const\s*)?(?:override\s*)?\{?\s*$`)

var javaLikeMethod = regexp.MustCompile(`(?m)^\s*(?:(?:public|private|protected|internal|static|final|synchronized|abstract|override|virtual)\s+)+[\w<>\[\],.?\s]+?\s+([A-Za-z_]\w*)\s*\(`)

var entryPatterns = map[string][]*regexp.Regexp{
	"python": {regexp.MustCompile(`(?m)^\s*(?:async\s+)?def\s+([A-Za-z_]\w*)\s*\(`)},
	"javascript": {
		regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)\s*\(`),
		regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*=\s*(?:async\s+)?(?:function\b|\([^)]*\)\s*=>|[A-Za-z_$][\w$]*\s*=>)`),
		regexp.MustCompile(`(?m)^\s+(?:async\s+)?([A-Za-z_$][\w$]*)\s*\([^)]*\)\s*\{`),
	},
	"typescript": {
		regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:async\s+)?function\s*([A-Za-z_$][\w$]*)\s*[<(]`),
		regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*(?::[^=]+)?=\s*(?:async\s+)?(?:function\b|\([^)]*\)[^=]*=>)`),
		regexp.MustCompile(`(?m)^\s+(?:(?:public|private|protected|static|async)\s+)*([A-Za-z_$][\w$]*)\s*\([^)]*\)\s*(?::[^{]+)?\{`),
	},
	"java":   {javaLikeMethod},
	"csharp": {javaLikeMethod},
	"c":      {cFamilyMethod},
	"cpp":    {cFamilyMethod},
	"dart":   {cFamilyMethod},
	"go":     {regexp.MustCompile(`(?m)^\s*func\s+(?:\([^)]*\)\s*)?([A-Za-z_]\w*)\s*\(`)},
	"rust":   {regexp.MustCompile(`(?m)^\s*(?:pub\s+)?fn\s+([A-Za-z_]\w*)`)},
	"kotlin": {regexp.MustCompile(`(?m)^\s*(?:(?:public|private|internal)\s+)?fun\s+([A-Za-z_]\w*)\s*\(`)},
	"scala":  {regexp.MustCompile(`(?m)^\s*def\s+([A-Za-z_]\w*)`)},
	"swift":  {regexp.MustCompile(`(?m)^\s*(?:(?:public|private|static)\s+)*func\s+([A-Za-z_]\w*)`)},
	"ruby":   {regexp.MustCompile(`(?m)^\s*def\s+(?:self\.)?([A-Za-z_]\w*[?!]?)`)},
	"php":    {regexp.MustCompile(`(?m)^\s*(?:(?:public|private|protected|static)\s+)*function\s+([A-Za-z_]\w*)\s*\(`)},
	"bash":   {regexp.MustCompile(`(?m)^\s*(?:function\s+)?([A-Za-z_]\w*)\s*\(\s*\)`)},
}

// Names that look like calls or declarations but are never an entry point.
var reservedEntries = map[string]struct{}{
	"if": {}, "for": {}, "while": {}, "switch": {}, "catch": {}, "return": {},
	"main": {}, "Main": {}, "constructor": {}, "Solution": {}, "sizeof": {},
	"function": {}, "init": {}, "new": {},
}

var solutionClass = regexp.MustCompile(`\b(?:class|struct)\s+Solution\b`)

// InferEntry returns the first declared function name in code, or "" when none is found.
func InferEntry(code, languageID string) string {
	for _, re := range entryPatterns[languageID] {
		for _, m := range re.FindAllStringSubmatch(code, -1) {
			name := m[1]
			if _, reserved := reservedEntries[name]; reserved {
				continue
			}
			if languageID == "python" && strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__") {
				continue
			}
			return name
		}
	}
	return ""
}

// HasSolutionClass reports whether the submission declares a Solution class.
func HasSolutionClass(code string) bool {
	return solutionClass.MatchString(code)
}

// Receivers used to call a method on a Solution instance.
var solutionReceivers = map[string]string{
	"python":     "Solution().",
	"javascript": "new Solution().",
	"typescript": "new Solution().",
	"java":       "new Solution().",
	"csharp":     "new Solution().",
	"cpp":        "Solution().",
	"kotlin":     "Solution().",
	"swift":      "Solution().",
	"dart":       "Solution().",
	"scala":      "new Solution().",
	"ruby":       "Solution.new.",
	"php":        "(new Solution())->",
}

// callExpression builds the expression a template uses to invoke the entry.
func callExpression(code, languageID, entry string) string {
	if receiver, ok := solutionReceivers[languageID]; ok && HasSolutionClass(code) {
		return receiver + entry
	}
	return entry
}

func validEntry(entry string) bool {
	return identPattern.MatchString(entry)
}
