package domain

// CopyPlan 规划一次文件复制（只描述 src/dst，不做任何写入）。
type CopyPlan struct {
	SrcAbs string
	DstDir string
	DstAbs string
}

// BatchPlan 是某个 batch 的执行计划。Copies 与 Batch.Files 一一对应、顺序一致。
type BatchPlan struct {
	Index  int
	Copies []CopyPlan
}

// Dirs 返回该 batch 涉及的目标目录（去重，按首次出现顺序）。
func (p BatchPlan) Dirs() []string {
	seen := make(map[string]struct{}, 1)
	out := make([]string, 0, 1)
	for _, c := range p.Copies {
		if _, ok := seen[c.DstDir]; ok {
			continue
		}
		seen[c.DstDir] = struct{}{}
		out = append(out, c.DstDir)
	}
	return out
}
