package headless

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/spaghettifunk/gridmesh/engine/renderer/metadata"
)

// declaration is one global in/out/uniform variable of a stage.
type declaration struct {
	Qualifier string
	Type      string
	Name      string
}

// stageInterface is what the linker needs to know about a compiled stage.
type stageInterface struct {
	Inputs   []declaration
	Outputs  []declaration
	Uniforms []declaration
	HasMain  bool
}

var (
	versionRe     = regexp.MustCompile(`^#version\s+(\d+)(\s+(core|compatibility|es))?\s*$`)
	declarationRe = regexp.MustCompile(`\b(?:layout\s*\([^)]*\)\s*)?(in|out|uniform)\s+(?:(?:highp|mediump|lowp|flat|smooth)\s+)*(\w+)\s+(\w+)\s*(?:\[\s*\d*\s*\])?\s*;`)
	mainRe        = regexp.MustCompile(`\bvoid\s+main\s*\(\s*(void)?\s*\)\s*\{`)
)

const minimumVersion = 140

// compileStage checks a stage the way a front-end compiler would at the
// granularity the engine cares about, and extracts its interface. The
// returned log uses the "0:line(col): error:" convention of desktop drivers.
func compileStage(stage metadata.ShaderStage, source string) (*stageInterface, string) {
	code := stripComments(source)
	if strings.TrimSpace(code) == "" {
		return nil, "0:1(1): error: shader source is empty\n"
	}

	if log := checkVersion(code); log != "" {
		return nil, log
	}
	if log := checkDelimiters(code); log != "" {
		return nil, log
	}

	iface := &stageInterface{
		HasMain: mainRe.MatchString(code),
	}
	seen := make(map[string]bool)
	for _, m := range declarationRe.FindAllStringSubmatch(code, -1) {
		d := declaration{Qualifier: m[1], Type: m[2], Name: m[3]}
		key := d.Qualifier + " " + d.Name
		if seen[key] {
			return nil, fmt.Sprintf("0:0(0): error: `%s' redeclared\n", d.Name)
		}
		seen[key] = true
		switch d.Qualifier {
		case "in":
			iface.Inputs = append(iface.Inputs, d)
		case "out":
			iface.Outputs = append(iface.Outputs, d)
		case "uniform":
			iface.Uniforms = append(iface.Uniforms, d)
		}
	}

	if stage == metadata.ShaderStageFragment && len(iface.Outputs) == 0 && !strings.Contains(code, "gl_FragColor") {
		return nil, "0:0(0): error: fragment shader writes no colour output\n"
	}
	return iface, ""
}

// linkStages validates the interface between the vertex and fragment stage
// and returns the merged uniform table in location order.
func linkStages(vertex, fragment *stageInterface) ([]declaration, string) {
	var log strings.Builder
	if !vertex.HasMain {
		log.WriteString("error: vertex shader lacks `main'\n")
	}
	if !fragment.HasMain {
		log.WriteString("error: fragment shader lacks `main'\n")
	}

	outputs := make(map[string]declaration, len(vertex.Outputs))
	for _, o := range vertex.Outputs {
		outputs[o.Name] = o
	}
	for _, in := range fragment.Inputs {
		o, ok := outputs[in.Name]
		if !ok {
			fmt.Fprintf(&log, "error: fragment shader input `%s' has no matching output in the previous stage\n", in.Name)
			continue
		}
		if o.Type != in.Type {
			fmt.Fprintf(&log, "error: `%s' declared as type `%s' in the vertex stage and type `%s' in the fragment stage\n", in.Name, o.Type, in.Type)
		}
	}

	var uniforms []declaration
	byName := make(map[string]declaration)
	for _, u := range append(append([]declaration{}, vertex.Uniforms...), fragment.Uniforms...) {
		if prev, ok := byName[u.Name]; ok {
			if prev.Type != u.Type {
				fmt.Fprintf(&log, "error: uniform `%s' declared as type `%s' and type `%s'\n", u.Name, prev.Type, u.Type)
			}
			continue
		}
		byName[u.Name] = u
		uniforms = append(uniforms, u)
	}

	if log.Len() > 0 {
		return nil, log.String()
	}
	return uniforms, ""
}

func checkVersion(code string) string {
	for i, line := range strings.Split(code, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, "#version") {
			return fmt.Sprintf("0:%d(1): error: #version directive must be the first statement\n", i+1)
		}
		m := versionRe.FindStringSubmatch(trimmed)
		if m == nil {
			return fmt.Sprintf("0:%d(1): error: malformed #version directive\n", i+1)
		}
		version, err := strconv.Atoi(m[1])
		if err != nil || version < minimumVersion {
			return fmt.Sprintf("0:%d(10): error: GLSL %s is not supported\n", i+1, m[1])
		}
		return ""
	}
	return "0:1(1): error: #version directive missing\n"
}

func checkDelimiters(code string) string {
	type open struct {
		char      byte
		line, col int
	}
	pairs := map[byte]byte{')': '(', ']': '[', '}': '{'}

	var stack []open
	line, col := 1, 0
	for i := 0; i < len(code); i++ {
		c := code[i]
		col++
		switch c {
		case '\n':
			line++
			col = 0
		case '(', '[', '{':
			stack = append(stack, open{char: c, line: line, col: col})
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1].char != pairs[c] {
				return fmt.Sprintf("0:%d(%d): error: syntax error, unexpected '%c'\n", line, col, c)
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		top := stack[len(stack)-1]
		return fmt.Sprintf("0:%d(%d): error: syntax error, unexpected end of file, unclosed '%c'\n", top.line, top.col, top.char)
	}
	return ""
}

// stripComments blanks out comments while keeping line numbers stable.
func stripComments(source string) string {
	var b strings.Builder
	b.Grow(len(source))
	for i := 0; i < len(source); i++ {
		switch {
		case strings.HasPrefix(source[i:], "//"):
			for i < len(source) && source[i] != '\n' {
				i++
			}
			if i < len(source) {
				b.WriteByte('\n')
			}
		case strings.HasPrefix(source[i:], "/*"):
			i += 2
			for i < len(source) && !strings.HasPrefix(source[i:], "*/") {
				if source[i] == '\n' {
					b.WriteByte('\n')
				}
				i++
			}
			i++
			b.WriteByte(' ')
		default:
			b.WriteByte(source[i])
		}
	}
	return b.String()
}
