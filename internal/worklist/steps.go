package worklist

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bft-labs/gpwatch/internal/domain"
)

// Argument keys accepted by steps.
const (
	ArgBarcode      = "barcode"
	ArgStep         = "step"
	ArgPlateType    = "plate_type"
	ArgPlateSize    = "plate_size"
	ArgDispenseList = "dispense_list"
	ArgFileName     = "FileName"
	ArgFileContents = "FileContents"
	ArgPriority     = "priority"
	ArgIterations   = "iterations"
	ArgMinimumDelay = "minimumDelay"
)

// Scheduler process names.
const (
	ProcessWriteFile      = "FileHandler2"
	ProcessMantisDispense = "Generic Mantis"
)

// Args are the named arguments passed to a step.
type Args map[string]string

func (a Args) clone() Args {
	out := make(Args, len(a)+1)
	for k, v := range a {
		out[k] = v
	}
	return out
}

// optionalArgs every step accepts, with their defaults.
var optionalArgs = []struct{ key, def string }{
	{ArgPriority, "10"},
	{ArgIterations, "1"},
	{ArgMinimumDelay, "0"},
}

// Step builds the batch for one scheduler process. The set of steps is
// closed: use WriteFileStep, MantisDispenseStep or NotifyStep.
type Step struct {
	Process  string
	Required []string
	vars     func(a Args) []Variable
}

// WriteFileStep has the scheduler write FileContents to FileName.
func WriteFileStep() Step {
	return Step{
		Process:  ProcessWriteFile,
		Required: []string{ArgBarcode, ArgStep, ArgFileName, ArgFileContents},
		vars: func(a Args) []Variable {
			return []Variable{
				stringVar("Barcode", a[ArgBarcode]),
				stringVar("FileContents", a[ArgFileContents]),
				stringVar("FileName", a[ArgFileName]),
			}
		},
	}
}

// MantisDispenseStep runs a Mantis dispense using a previously written list.
func MantisDispenseStep() Step {
	return Step{
		Process:  ProcessMantisDispense,
		Required: []string{ArgBarcode, ArgStep, ArgPlateType, ArgDispenseList},
		vars: func(a Args) []Variable {
			return []Variable{
				stringVar("Barcode", a[ArgBarcode]),
				stringVar("Plate_Type", a[ArgPlateType]),
				stringVar("Mantis_Dispense_List", baseName(a[ArgDispenseList])),
			}
		},
	}
}

// NotifyStep reports a grown plate to process.
func NotifyStep(process string) Step {
	return Step{
		Process:  process,
		Required: []string{ArgBarcode, ArgStep, ArgPlateSize, ArgPlateType},
		vars: func(a Args) []Variable {
			return []Variable{
				stringVar("Barcode", a[ArgBarcode]),
				stringVar("Plate_Size", a[ArgPlateSize]),
				stringVar("Plate_Type", a[ArgPlateType]),
			}
		},
	}
}

// Batch validates args and builds the batch named {barcode}-{step}.
// Arguments the step does not declare are ignored.
func (s Step) Batch(args Args) (Batch, error) {
	for _, key := range s.Required {
		if _, ok := args[key]; !ok {
			return Batch{}, fmt.Errorf("%w: missing required argument %q for process %q", domain.ErrValidation, key, s.Process)
		}
	}

	a := make(Args, len(s.Required)+len(optionalArgs))
	for _, key := range s.Required {
		a[key] = args[key]
	}
	for _, opt := range optionalArgs {
		if v, ok := args[opt.key]; ok {
			a[opt.key] = v
		} else {
			a[opt.key] = opt.def
		}
	}

	step, err := strconv.Atoi(a[ArgStep])
	if err != nil || step < 1 {
		return Batch{}, fmt.Errorf("%w: step %q for process %q must be a positive integer", domain.ErrValidation, a[ArgStep], s.Process)
	}

	barcode := a[ArgBarcode]
	reference, constraint := ReferenceNone, ConstraintASAP
	if step > 1 {
		reference = batchName(barcode, step-1)
		constraint = ConstraintStartFinish
	}

	return Batch{
		Process:      s.Process,
		Name:         batchName(barcode, step),
		Priority:     a[ArgPriority],
		Iterations:   a[ArgIterations],
		MinimumDelay: a[ArgMinimumDelay],
		Reference:    reference,
		Constraint:   constraint,
		Variables:    s.vars(a),
	}, nil
}

func batchName(barcode string, step int) string {
	return barcode + "-" + strconv.Itoa(step)
}

func stringVar(name, value string) Variable {
	return Variable{Type: VariableTypeString, Name: name, Value: value}
}

// baseName strips a Windows or POSIX directory prefix.
func baseName(p string) string {
	if i := strings.LastIndexAny(p, `\/`); i >= 0 {
		return p[i+1:]
	}
	return p
}

// joinWindows joins a scheduler-host directory and a file name.
func joinWindows(dir, name string) string {
	dir = strings.TrimRight(dir, `\/`)
	if dir == "" {
		return name
	}
	return dir + `\` + name
}
