package worklist

import (
	"math"
	"strconv"
	"strings"

	"github.com/bft-labs/gpwatch/internal/domain"
)

const dispenseListTimeFormat = "2006-01-02_15-04-05"

// PlateLabels are the Mantis plate definitions chosen by well count.
type PlateLabels struct {
	Wells96  string
	Wells384 string
	Other    string
}

// DefaultPlateLabels returns the plate definitions installed on the Mantis.
func DefaultPlateLabels() PlateLabels {
	return PlateLabels{
		Wells96:  "Eppendorf twin.tec PCR_96 on adapter",
		Wells384: "Biorad 384 PCR on Adapter",
		Other:    "Mantis-Other",
	}
}

// For returns the label for a plate with wells wells.
func (l PlateLabels) For(wells int) string {
	switch wells {
	case 96:
		return l.Wells96
	case 384:
		return l.Wells384
	default:
		return l.Other
	}
}

// DispenseList is a Mantis dispense list ready to be written.
type DispenseList struct {
	// Name is {barcode}-{timestamp}.dl.txt.
	Name string

	// Content uses CRLF line endings.
	Content string
}

// DispenseList builds the dispense list for info, stamped with the builder clock.
func (b *Builder) DispenseList(info domain.PlateInfo) DispenseList {
	label := b.cfg.Labels.For(info.Wells())
	return DispenseList{
		Name:    info.PlateID + "-" + b.cfg.Now().Format(dispenseListTimeFormat) + ".dl.txt",
		Content: dispenseListText(label, b.cfg.Reagent, b.cfg.Viscosity, info.NumColumns, info.NumRows, b.cfg.DispenseVolume),
	}
}

// dispenseListText renders a single-reagent list: a fixed preamble, the
// reagent header and a cols x rows grid of volume.
func dispenseListText(label, reagent, viscosity string, cols, rows int, volume float64) string {
	var b strings.Builder
	b.WriteString("[ Version: 6 ]\n")
	b.WriteString(label + ".pd.txt\n")
	b.WriteString("0\n")
	b.WriteString("1\n")
	b.WriteString("2\t0\t\t0\t\n")
	b.WriteString("1\n")
	b.WriteString(reagent + "\t\t" + viscosity + "\n")
	b.WriteString("Well\t1\n")

	cell := formatVolume(volume)
	for c := 0; c < cols; c++ {
		for r := 0; r < rows; r++ {
			if r > 0 {
				b.WriteByte('\t')
			}
			b.WriteString(cell)
		}
		b.WriteByte('\n')
	}

	return toCRLF(b.String())
}

// formatVolume rounds to one decimal and prints the shortest form, so 2
// prints as "2" and 2.25 as "2.3".
func formatVolume(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64)
}

func toCRLF(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}
