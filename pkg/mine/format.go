package mine

import (
	"math/big"
	"strings"

	"github.com/oisee/seqmine/pkg/inst"
	"github.com/oisee/seqmine/pkg/oeis"
)

// Annotator renders programs for humans: header comments with the
// sequence identity and first terms, inline comments naming seq call
// targets.
type Annotator struct {
	// Names maps OEIS ids to their textual descriptions.
	Names map[oeis.ID]string
	// SubmittedBy, when non-empty, is credited in the header.
	SubmittedBy string
}

// maxHeaderTerms bounds the term listing in the header comment.
const maxHeaderTerms = 20

// Format renders a program with annotations. id may be nil for
// anonymous candidates; terms may be nil when unknown.
func (a *Annotator) Format(prog *inst.Program, id *oeis.ID, terms []*big.Int) string {
	var b strings.Builder
	if id != nil {
		name := a.Names[*id]
		if name != "" {
			b.WriteString("; " + id.ANumber() + ": " + name + "\n")
		} else {
			b.WriteString("; " + id.ANumber() + "\n")
		}
	}
	if a.SubmittedBy != "" {
		b.WriteString("; Submitted by " + a.SubmittedBy + "\n")
	}
	if len(terms) > 0 {
		listed := terms
		if len(listed) > maxHeaderTerms {
			listed = listed[:maxHeaderTerms]
		}
		parts := make([]string, len(listed))
		for i, t := range listed {
			parts[i] = t.String()
		}
		b.WriteString("; " + strings.Join(parts, ",") + "\n")
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	depth := 0
	for i := 0; i < prog.Len(); i++ {
		ins := prog.At(i)
		if ins.Op == inst.Lpe && depth > 0 {
			depth--
		}
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(ins.String())
		if comment := a.callComment(ins); comment != "" {
			b.WriteString(" ; " + comment)
		}
		b.WriteByte('\n')
		if ins.Op == inst.Lpb {
			depth++
		}
	}
	return b.String()
}

func (a *Annotator) callComment(ins inst.Instruction) string {
	if ins.Op != inst.Seq || !ins.HasSource() || !ins.Source().IsConstant() {
		return ""
	}
	id := oeis.ID(ins.Source().Value.Uint64())
	return a.Names[id]
}
