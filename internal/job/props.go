package job

import "strings"

// splitProps separates key=value job arguments from positional ones. The
// key=value form binds onto the job's configuration section, overriding the
// loaded values for one run.
func splitProps(args []string) (map[string]interface{}, []string) {
	props := make(map[string]interface{})
	var rest []string
	for _, a := range args {
		if k, v, ok := strings.Cut(a, "="); ok && k != "" {
			props[k] = v
			continue
		}
		rest = append(rest, a)
	}
	return props, rest
}
