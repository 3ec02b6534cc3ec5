package structure

import (
	"fmt"

	"github.com/layerlint/layerlint/pkg/conformance"
	"github.com/layerlint/layerlint/pkg/core"
)

// entrypointFile is the one source-root file every project has and no layer
// folder can hold.
const entrypointFile = "main.dart"

func init() {
	conformance.Register(conformance.RuleDef{
		ID:          "ST01",
		Name:        "unclassified-file",
		Group:       "structure",
		Description: "File is not under any recognized layer folder",
		Severity:    core.SeverityWarning,
		Check:       checkUnclassifiedFile,
		ConfigKeys:  []string{"layers", "source_dir"},

		Rationale: `Every file must live in a layer folder so its architectural role can be read off the
path. A file outside the folder table has no layer, which means none of its dependencies can
be judged: the checker sees code it cannot classify and the layer rules silently stop applying
to it. Unclassified files are where architecture erosion starts.`,

		BadExample: `lib/booking/helpers/date_utils.dart`,

		GoodExample: `lib/common/services/date_service.dart`,

		Fix: "Move the file into one of the layer folders, or declare the folder as a layer in the policy.",
	})
}

// checkUnclassifiedFile flags every indexed file that matched no layer
// folder. The source-root entrypoint is the one expected exception.
func checkUnclassifiedFile(ctx *conformance.Context) []core.Violation {
	var violations []core.Violation

	for _, f := range ctx.Files() {
		if f.Layer != core.LayerUnclassified {
			continue
		}
		if f.Feature == "" && f.RelPath == entrypointFile {
			continue
		}

		var msg string
		if f.Feature == "" {
			msg = fmt.Sprintf("'%s' sits directly under the source root, outside any feature", f.RelPath)
		} else {
			msg = fmt.Sprintf("'%s' is not under a recognized layer folder of feature '%s'", f.RelPath, f.Feature)
		}

		violations = append(violations, core.Violation{
			RuleID:   "ST01",
			Kind:     core.KindStructureViolation,
			Severity: core.SeverityWarning,
			Feature:  f.Feature,
			File:     f.RelPath,
			Message:  msg,
		})
	}

	return violations
}
