package patch

import "strings"

// FromCommand detects the apply_patch calling convention in an argv and
// extracts the patch body. Two shapes are recognized:
//
//	["apply_patch", "<diff>"]
//	["bash"|"sh", "-c"|"-lc", "apply_patch <<'EOF'\n<diff>\nEOF"]
//
// Commands routed through here never reach the generic process spawner, so
// patch write-containment cannot be bypassed via shell exec.
func FromCommand(argv []string) (string, bool) {
	if len(argv) == 2 && argv[0] == "apply_patch" {
		return argv[1], true
	}
	if len(argv) == 3 && (argv[0] == "bash" || argv[0] == "sh") &&
		(argv[1] == "-c" || argv[1] == "-lc") {
		return fromHeredoc(argv[2])
	}
	return "", false
}

func fromHeredoc(script string) (string, bool) {
	trimmed := strings.TrimSpace(script)
	if !strings.HasPrefix(trimmed, "apply_patch") {
		return "", false
	}
	rest := strings.TrimSpace(strings.TrimPrefix(trimmed, "apply_patch"))
	if !strings.HasPrefix(rest, "<<") {
		return "", false
	}
	rest = strings.TrimSpace(strings.TrimPrefix(rest, "<<"))

	newline := strings.IndexByte(rest, '\n')
	if newline < 0 {
		return "", false
	}
	delimiter := strings.Trim(strings.TrimSpace(rest[:newline]), "'\"")
	if delimiter == "" {
		return "", false
	}
	body := rest[newline+1:]

	end := strings.LastIndex(body, "\n"+delimiter)
	if end < 0 {
		if strings.TrimSpace(body) == delimiter {
			return "", true
		}
		return "", false
	}
	return body[:end], true
}
