// SPDX-License-Identifier: EPL-2.0

package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ik5/cryfeat/predict"
	"github.com/ik5/cryfeat/tensor"
)

var (
	primary = lipgloss.Color("#00ff9f")
	dim     = lipgloss.Color("#6e7681")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(primary)
	labelStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(dim)
	barStyle   = lipgloss.NewStyle().Foreground(primary)
)

const barWidth = 30

// renderPrediction draws the winning class and one bar per class.
func renderPrediction(p *predict.Prediction) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s %s\n",
		titleStyle.Render(p.Label),
		fmt.Sprintf("%.2f%%", p.Confidence),
		dimStyle.Render("("+string(p.Variant)+")"))

	width := 0
	for _, c := range p.Classes {
		width = max(width, lipgloss.Width(c))
	}

	for i, c := range p.Classes {
		prob := float64(p.Probabilities[i])
		n := int(prob*barWidth + 0.5)

		name := fmt.Sprintf("%-*s", width, c)
		if i == p.Index {
			name = labelStyle.Render(name)
		}

		fmt.Fprintf(&b, "  %s %s%s %6.2f%%\n",
			name,
			barStyle.Render(strings.Repeat("█", n)),
			dimStyle.Render(strings.Repeat("·", barWidth-n)),
			prob*100)
	}

	return b.String()
}

// renderSummary describes a feature tensor without dumping its values.
func renderSummary(name string, t tensor.Tensor) string {
	lo, hi := float32(0), float32(0)
	for i, v := range t.Data {
		if i == 0 || v < lo {
			lo = v
		}
		if i == 0 || v > hi {
			hi = v
		}
	}

	return fmt.Sprintf("%s %s %s\n",
		titleStyle.Render(name),
		labelStyle.Render(t.String()),
		dimStyle.Render(fmt.Sprintf("min %.4f max %.4f", lo, hi)))
}
