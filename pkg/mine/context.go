package mine

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/oisee/seqmine/pkg/analytics"
	"github.com/oisee/seqmine/pkg/oeis"
)

// MutateContext bundles everything mutation needs: the weighted
// suggestion models built from the analytics CSVs and the pool of seed
// programs. Built once, then shared read-only by every worker.
type MutateContext struct {
	Instructions *SuggestInstruction
	Sources      *SuggestOperand
	Targets      *SuggestOperand
	Constants    *ConstantHistogram

	seedIDs  []oeis.ID
	clusters [][]oeis.ID
}

// numRecencyClusters splits the seed pool for sampling; newer clusters
// are drawn more often.
const numRecencyClusters = 10

// NewMutateContext assembles a context from already-loaded records.
// seedIDs must exclude invalid and denied programs and be ordered
// newest first when recency weighting is wanted.
func NewMutateContext(
	instructionTrigrams, sourceTrigrams, targetTrigrams []analytics.RecordTrigram,
	constants []analytics.RecordConstant,
	seedIDs []oeis.ID,
) (*MutateContext, error) {
	if len(seedIDs) == 0 {
		return nil, fmt.Errorf("mutate context: no seed programs available")
	}
	ctx := &MutateContext{
		Instructions: NewSuggestInstruction(instructionTrigrams),
		Sources:      NewSuggestOperand(sourceTrigrams),
		Targets:      NewSuggestOperand(targetTrigrams),
		Constants:    NewConstantHistogram(constants),
		seedIDs:      seedIDs,
	}
	ctx.clusters = clusterIDs(seedIDs, numRecencyClusters)
	return ctx, nil
}

// LoadMutateContext reads the analytics directory written by the
// analytics batch. Ids in deny are excluded from the seed pool.
func LoadMutateContext(analyticsDir string, deny map[oeis.ID]bool) (*MutateContext, error) {
	instructionTrigrams, err := analytics.ReadTrigramCSV(filepath.Join(analyticsDir, analytics.FileInstructionTrigram))
	if err != nil {
		return nil, fmt.Errorf("instruction trigrams: %w", err)
	}
	sourceTrigrams, err := analytics.ReadTrigramCSV(filepath.Join(analyticsDir, analytics.FileSourceTrigram))
	if err != nil {
		return nil, fmt.Errorf("source trigrams: %w", err)
	}
	targetTrigrams, err := analytics.ReadTrigramCSV(filepath.Join(analyticsDir, analytics.FileTargetTrigram))
	if err != nil {
		return nil, fmt.Errorf("target trigrams: %w", err)
	}
	constants, err := analytics.ReadConstantCSV(filepath.Join(analyticsDir, analytics.FileInstructionConst))
	if err != nil {
		return nil, fmt.Errorf("constant histogram: %w", err)
	}
	valid, err := analytics.ReadProgramIDsCSV(filepath.Join(analyticsDir, analytics.FileProgramsValid))
	if err != nil {
		return nil, fmt.Errorf("valid programs: %w", err)
	}
	invalid := make(map[oeis.ID]bool)
	invalidList, err := analytics.ReadProgramIDsCSV(filepath.Join(analyticsDir, analytics.FileProgramsInvalid))
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("invalid programs: %w", err)
	}
	for _, id := range invalidList {
		invalid[id] = true
	}
	var seeds []oeis.ID
	for _, id := range valid {
		if invalid[id] || deny[id] {
			continue
		}
		seeds = append(seeds, id)
	}
	glog.Infof("mutate context: %d seed programs, %d instruction trigrams",
		len(seeds), len(instructionTrigrams))
	return NewMutateContext(instructionTrigrams, sourceTrigrams, targetTrigrams, constants, seeds)
}

// ChooseSeed samples a seed program id, biased toward the front
// clusters of the pool.
func (c *MutateContext) ChooseSeed(rng *rand.Rand) oeis.ID {
	// Triangular weighting: cluster 0 is drawn n times as often as
	// the last one.
	n := len(c.clusters)
	total := n * (n + 1) / 2
	pick := rng.IntN(total)
	for i := 0; i < n; i++ {
		weight := n - i
		if pick < weight {
			cluster := c.clusters[i]
			return cluster[rng.IntN(len(cluster))]
		}
		pick -= weight
	}
	return c.seedIDs[rng.IntN(len(c.seedIDs))]
}

// SeedCount returns the size of the seed pool.
func (c *MutateContext) SeedCount() int {
	return len(c.seedIDs)
}

func clusterIDs(ids []oeis.ID, n int) [][]oeis.ID {
	if n > len(ids) {
		n = len(ids)
	}
	clusters := make([][]oeis.ID, 0, n)
	size := (len(ids) + n - 1) / n
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		clusters = append(clusters, ids[start:end])
	}
	return clusters
}
