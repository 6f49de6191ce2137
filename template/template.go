// Package template resolves command templates against substitution maps and
// infers transcoder options from probed media metadata.
package template

import (
	"fmt"
	"strings"

	"github.com/vtbench/vtbench/probe"
)

// Substitutions maps placeholder names to their replacement values.
// Treated as immutable by Resolve.
type Substitutions map[string]string

// Resolve replaces every {name} occurrence in the template with its value
// from subs. Placeholders without a substitution are left verbatim, never an
// error. Replacement is single pass: substituted values are not rescanned.
func Resolve(template string, subs Substitutions) string {
	var b strings.Builder
	b.Grow(len(template))

	for i := 0; i < len(template); {
		if template[i] != '{' {
			b.WriteByte(template[i])
			i++
			continue
		}

		end := strings.IndexByte(template[i:], '}')
		if end < 0 {
			// Unterminated placeholder, keep the rest as-is
			b.WriteString(template[i:])
			break
		}

		name := template[i+1 : i+end]
		if value, ok := subs[name]; ok {
			b.WriteString(value)
		} else {
			b.WriteString(template[i : i+end+1])
		}
		i += end + 1
	}

	return b.String()
}

// InferOptions turns probed metadata into substitution values. Pure function,
// no I/O.
//
// Placeholders produced:
//
//	{deinterlace}  bare yadif filter when the asset is interlaced, else empty
//	{scale}        bare scale filter when the asset exceeds targetWidth, else empty
//	{vf}           complete -vf flag chaining both filters, empty when neither applies
func InferOptions(info probe.MediaInfo, targetWidth int) Substitutions {
	subs := Substitutions{
		"deinterlace": "",
		"scale":       "",
		"vf":          "",
	}

	var filters []string
	if info.Interlaced {
		subs["deinterlace"] = "yadif"
		filters = append(filters, "yadif")
	}
	if info.NeedsScaling {
		scale := fmt.Sprintf("scale=%d:-2", targetWidth)
		subs["scale"] = scale
		filters = append(filters, scale)
	}
	if len(filters) > 0 {
		subs["vf"] = "-vf " + strings.Join(filters, ",")
	}

	return subs
}

// Merge returns a new map containing base overlaid with extra. Neither input
// is modified.
func Merge(base, extra Substitutions) Substitutions {
	merged := make(Substitutions, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}
