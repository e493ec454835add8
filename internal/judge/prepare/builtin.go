package prepare

// Built-in problems with known IO shapes.
const (
	ProblemGeneric    int64 = 0
	ProblemHelloWorld int64 = 1
	ProblemAddTwo     int64 = 2
	ProblemEvenOdd    int64 = 4
	ProblemArraySum   int64 = 6
)

var builtinEntries = map[int64]string{
	ProblemHelloWorld: "helloWorld",
	ProblemAddTwo:     "addTwoNumbers",
	ProblemEvenOdd:    "isEven",
	ProblemArraySum:   "arraySum",
}

const cppHeaders = `#include <iostream>
#include <vector>
#include <string>
#include <algorithm>
#include <map>
using namespace std;
`

const nodeReadline = `const readline = require('readline');
const rl = readline.createInterface({ input: process.stdin, output: process.stdout });
`

var builtinTemplates = map[templateKey]string{
	// Generic wrappers only add the usual imports; the code must produce output itself.
	{language: "python", problemID: ProblemGeneric}: `import sys
from typing import List, Optional

{{.Code}}
`,
	{language: "javascript", problemID: ProblemGeneric}: `{{.Code}}
`,
	{language: "java", problemID: ProblemGeneric}: `import java.util.*;
import java.io.*;

{{.Code}}
`,
	{language: "cpp", problemID: ProblemGeneric}: cppHeaders + `
{{.Code}}
`,

	{language: "python", problemID: ProblemHelloWorld}: `{{.Code}}

print({{.Call}}())
`,
	{language: "javascript", problemID: ProblemHelloWorld}: `{{.Code}}

console.log({{.Call}}());
`,
	{language: "java", problemID: ProblemHelloWorld}: `import java.util.*;

{{.Code}}

public class Main {
    public static void main(String[] args) {
        System.out.println({{.Call}}());
    }
}
`,
	{language: "cpp", problemID: ProblemHelloWorld}: cppHeaders + `
{{.Code}}

int main() {
    cout << {{.Call}}() << endl;
    return 0;
}
`,

	{language: "python", problemID: ProblemAddTwo}: `{{.Code}}

a, b = map(int, input().split())
print({{.Call}}(a, b))
`,
	{language: "javascript", problemID: ProblemAddTwo}: nodeReadline + `
{{.Code}}

rl.on('line', (line) => {
    const [a, b] = line.trim().split(/\s+/).map(Number);
    console.log({{.Call}}(a, b));
    rl.close();
});
`,
	{language: "java", problemID: ProblemAddTwo}: `import java.util.*;

{{.Code}}

public class Main {
    public static void main(String[] args) {
        Scanner sc = new Scanner(System.in);
        int a = sc.nextInt();
        int b = sc.nextInt();
        System.out.println({{.Call}}(a, b));
        sc.close();
    }
}
`,
	{language: "cpp", problemID: ProblemAddTwo}: cppHeaders + `
{{.Code}}

int main() {
    int a, b;
    cin >> a >> b;
    cout << {{.Call}}(a, b) << endl;
    return 0;
}
`,

	{language: "python", problemID: ProblemEvenOdd}: `{{.Code}}

num = int(input())
print(str({{.Call}}(num)).lower())
`,
	{language: "javascript", problemID: ProblemEvenOdd}: nodeReadline + `
{{.Code}}

rl.on('line', (line) => {
    const num = parseInt(line.trim(), 10);
    console.log({{.Call}}(num));
    rl.close();
});
`,
	{language: "java", problemID: ProblemEvenOdd}: `import java.util.*;

{{.Code}}

public class Main {
    public static void main(String[] args) {
        Scanner sc = new Scanner(System.in);
        int num = sc.nextInt();
        System.out.println({{.Call}}(num));
        sc.close();
    }
}
`,
	{language: "cpp", problemID: ProblemEvenOdd}: cppHeaders + `
{{.Code}}

int main() {
    int num;
    cin >> num;
    cout << ({{.Call}}(num) ? "true" : "false") << endl;
    return 0;
}
`,

	{language: "python", problemID: ProblemArraySum}: `from typing import List

{{.Code}}

n = int(input())
nums = list(map(int, input().split())) if n > 0 else []
print({{.Call}}(nums))
`,
	{language: "javascript", problemID: ProblemArraySum}: nodeReadline + `
{{.Code}}

const lines = [];
rl.on('line', (line) => lines.push(line));
rl.on('close', () => {
    const n = parseInt(lines[0], 10);
    const nums = n > 0 ? lines[1].trim().split(/\s+/).map(Number) : [];
    console.log({{.Call}}(nums));
});
`,
	{language: "java", problemID: ProblemArraySum}: `import java.util.*;

{{.Code}}

public class Main {
    public static void main(String[] args) {
        Scanner sc = new Scanner(System.in);
        int n = sc.nextInt();
        int[] nums = new int[n];
        for (int i = 0; i < n; i++) {
            nums[i] = sc.nextInt();
        }
        System.out.println({{.Call}}(nums));
        sc.close();
    }
}
`,
	{language: "cpp", problemID: ProblemArraySum}: cppHeaders + `
{{.Code}}

int main() {
    int n;
    cin >> n;
    vector<int> nums(n);
    for (int i = 0; i < n; i++) {
        cin >> nums[i];
    }
    cout << {{.Call}}(nums) << endl;
    return 0;
}
`,
}
